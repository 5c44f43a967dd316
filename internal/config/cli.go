package config

import (
	"time"

	"github.com/alecthomas/kong"
)

type Cli struct {
	Version kong.VersionFlag

	LogLevel   string `kong:"name=log-level,env=LOG_LEVEL,default=info,help='Set log level.'"`
	LogJSON    bool   `kong:"name=log-json,env=LOG_JSON,default=false,help='Enable JSON logging output.'"`
	LogCaller  bool   `kong:"name=log-caller,env=LOG_CALLER,default=false,help='Add file:line of the caller to log output.'"`
	LogNoColor bool   `kong:"name=log-nocolor,env=LOG_NOCOLOR,default=false,help='Disable colorized output.'"`

	Bind            string        `kong:"name=bind,env=IMGPLAYER_BIND,default=127.0.0.1,help='Address to bind.'"`
	Port            int           `kong:"name=port,short=p,env=IMGPLAYER_PORT,default=8080,help='Port to listen.'"`
	Index           string        `kong:"name=index,type=existingfile,env=IMGPLAYER_INDEX,help='HTML page served at /. (eg. ./index.html)'"`
	Metrics         bool          `kong:"name=metrics,env=IMGPLAYER_METRICS,default=false,help='Expose Prometheus metrics at /metrics.'"`
	ShutdownTimeout time.Duration `kong:"name=shutdown-timeout,env=IMGPLAYER_SHUTDOWN_TIMEOUT,default=10s,help='Time allowed for in-flight requests on shutdown.'"`

	Root string `kong:"arg,required,name=root,type=existingdir,help='Root dir to view. (eg. ~/Pictures)'"`
}
