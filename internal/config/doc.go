// Package config provides configuration parsing for navflow.
//
// The configuration is stored in navflow.json (or navflow.yaml) in the
// directory passed to Load. A directory without a configuration file runs
// with the defaults.
//
// # Configuration File Structure
//
//	{
//	  "settleTimeout": "15s",
//	  "server": {
//	    "host": "localhost",
//	    "port": 7300,
//	    "socketPath": "/nav/ws",
//	    "allowedOrigins": ["https://app.example.com"],
//	    "eventRate": 20,
//	    "eventBurst": 40
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "navflow",
//	    "path": "/metrics"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
