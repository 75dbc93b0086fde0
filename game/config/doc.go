// Package config holds the runtime configuration of the Screeps World MCP gateway.
//
// The config package handles:
//   - Loading settings from the environment (SCREEPS_* variables)
//   - Validating the remote base URL, loop-detection window and threshold
//   - Holding the credential (token and username) used for every API call
//   - Updating the token at runtime without restarting the process
//
// Environment Variables:
//
//	SCREEPS_BASE_URL        Remote API root (default https://screeps.com/api)
//	SCREEPS_TOKEN           Auth token sent as X-Token
//	SCREEPS_USERNAME        Username sent as X-Username
//	SCREEPS_LOOP_WINDOW     Loop-detection window, Go duration (default 60s)
//	SCREEPS_LOOP_THRESHOLD  Repetition count that gets blocked (default 3, 0 disables)
//	SCREEPS_HTTP_TIMEOUT    Outbound HTTP client timeout (default 30s)
//
// Usage:
//
//	settings, err := config.FromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := config.NewManager(settings)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	headers := manager.AuthHeaders()
//	manager.SetToken("new-token")
//
// The Manager is safe for concurrent use. Readers always observe a consistent
// token/username pair.
package config
