// Package config loads the wearguard configuration file (wearguard.yaml).
//
// Config fields:
//   - Server.HTTPPort              port for the REST API and /metrics (default 8080)
//   - Server.Auth.Mode             "apikey" or "none"
//   - Server.Auth.KeyEnv           environment variable holding the expected API key
//   - Server.Auth.Header           HTTP header carrying the key (default "x-api-key")
//   - Server.CORS.AllowedOrigins   browser origins allowed to call the API
//   - Server.ShutdownTimeout       graceful shutdown budget (default 10s)
//   - Server.History.TTL           how long served predictions stay queryable (default 15m, 0 disables)
//   - Server.History.MaxEntries    history size bound (default 10000)
//   - Model.ScalerPath             fitted scaler artifact (default models/scaler.yaml)
//   - Model.ClassifierPath         trained classifier artifact (default models/maintenance_model.yaml)
//   - Model.HotReload              reload artifacts when the config file changes
//   - Pipeline.Recommendations     include recommendations in responses (default true)
//   - Alerts.MinLevel              Yellow | Red | off (default Red)
//   - Alerts.Cooldown              minimum gap between alerts for one level (default 15m)
//   - Alerts.Webhooks              delivery targets; URLs come from the named env vars
//   - Log.Level                    debug | info | warn | error (default info)
//
// Relative artifact paths are resolved against the config file's directory.
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) re-runs Load when the file changes and hands the
// result to onChange; a file that fails to load is logged and skipped.
package config
