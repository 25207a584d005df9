package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMonitorRoutes exposes /metrics and a small status page that polls the health endpoint.
func RegisterMonitorRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(monitorPage))
	})
}

const monitorPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Registry Monitor</title>
  <style>
    body { background: #111; color: #e0e0e0; font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; padding: 20px; }
    .card { max-width: 720px; margin: 0 auto 1rem; padding: 1.25rem; border: 1px solid #333; border-radius: 12px; }
    pre { white-space: pre-wrap; font-size: 0.85rem; color: #9ad; }
  </style>
</head>
<body>
  <div class="card"><h1>Research Registry</h1><div id="status">Status: checking...</div></div>
  <div class="card"><h2>Dataset import metrics</h2><pre id="metrics">loading...</pre></div>
  <script>
    function fetchStatus() {
      fetch('/api/v1/health')
        .then(r => r.json())
        .then(d => { document.getElementById('status').textContent = 'Status: ' + d.status + ' (database ' + d.database + ')'; })
        .catch(() => { document.getElementById('status').textContent = 'Status: offline'; });
    }
    function fetchMetrics() {
      fetch('/metrics')
        .then(r => r.text())
        .then(t => {
          const lines = t.split('\n').filter(l => l.startsWith('registry_dataset_import'));
          document.getElementById('metrics').textContent = lines.join('\n') || 'no committed imports yet';
        });
    }
    fetchStatus();
    fetchMetrics();
    setInterval(fetchStatus, 5000);
    setInterval(fetchMetrics, 15000);
  </script>
</body>
</html>`
