package web

import (
	"html/template"

	"github.com/dustin/go-humanize"
)

type pageData struct {
	Runs         int64
	CacheEntries int
	Errors       int64
	DataSize     string
	Debug        bool
	TimeoutMs    int64
}

func (s *Server) pageData() pageData {
	snapshot := s.client.Stats()
	return pageData{
		Runs:         s.runner.Runs(),
		CacheEntries: snapshot.CacheSize,
		Errors:       snapshot.ErrorsObserved,
		DataSize:     humanize.Bytes(uint64(snapshot.CumulativeBytes)),
		Debug:        s.client.DebugEnabled(),
		TimeoutMs:    s.client.Timeout().Milliseconds(),
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Star Wars API Demo</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
      h1 { color: #FFE81F; background-color: #000; padding: 10px; }
      button { background-color: #FFE81F; border: none; padding: 10px 20px; cursor: pointer; }
      .footer { margin-top: 50px; font-size: 12px; color: #666; }
      pre { background: #f4f4f4; padding: 10px; border-radius: 5px; }
    </style>
  </head>
  <body>
    <h1>Star Wars API Demo</h1>
    <p>This page demonstrates fetching data from the Star Wars API.</p>
    <p>Check your console for the API results.</p>
    <button onclick="fetchData()">Fetch Star Wars Data</button>
    <div id="results"></div>
    <script>
      function fetchData() {
        document.getElementById('results').innerHTML = '<p>Loading data...</p>';
        fetch('/api')
          .then(res => res.text())
          .then(() => {
            document.getElementById('results').innerHTML = '<p>Data fetched! Check server console.</p>';
          })
          .catch(err => {
            document.getElementById('results').textContent = 'Error: ' + err.message;
          });
      }
    </script>
    <div class="footer">
      <p>API calls: {{.Runs}} | Cache entries: {{.CacheEntries}} | Errors: {{.Errors}} | Data: {{.DataSize}}</p>
      <pre>Debug mode: {{if .Debug}}ON{{else}}OFF{{end}} | Timeout: {{.TimeoutMs}}ms</pre>
    </div>
  </body>
</html>
`))
