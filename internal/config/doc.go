// Package config loads statekit.yaml.
//
// Every field has a default, so an absent file or an empty section is
// valid. Unknown fields are rejected.
//
// # Configuration File Structure
//
//	log:
//	  level: info          # debug, info, warn, error
//	  format: text         # text or json
//	cache:
//	  backend: file        # memory, file, badger, sqlite, postgres, s3
//	  path: .statekit/cache.json
//	  prefix: ""
//	  table: statekit_cache
//	  dsn: ""              # postgres
//	  driver: pgx          # database/sql driver for postgres
//	  s3:
//	    bucket: my-bucket
//	    region: us-east-1
//	    endpoint: ""
//	auth:
//	  mode: mock           # mock or jwt
//	  latency: 1s
//	  secret: ""           # jwt signing secret, at least 16 bytes
//	  ttl: 1h
//	  users:
//	    admin: password
//	products:
//	  fetchDelay: 500ms
//	notifications:
//	  dismissAfter: 5s
//	inspect:
//	  addr: 127.0.0.1:7070
//	  rateLimit: 20        # action requests per second, 0 disables
//	  burst: 40
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Cache:", cfg.Cache.Backend, cfg.CachePath())
package config
