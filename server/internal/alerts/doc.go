// Package alerts raises an alert when a prediction reaches the configured
// risk level and delivers it to Teams, Slack, PagerDuty, or generic HTTP
// webhooks. Repeat alerts for the same level are held back by a cooldown.
package alerts
