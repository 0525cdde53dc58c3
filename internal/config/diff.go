package config

import (
	"sort"
	"strings"

	logx "replybot/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging (never includes secrets like API keys
// or the JWT signing secret).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Logging
	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) ||
		oldCfg.Logging.Memory.Enabled != newCfg.Logging.Memory.Enabled ||
		oldCfg.Logging.Memory.Size != newCfg.Logging.Memory.Size {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.memory_enabled", newCfg.Logging.Memory.Enabled),
		)
	}

	// Twitter (never log credentials)
	if secretSet(oldCfg.Twitter.APIKey) != secretSet(newCfg.Twitter.APIKey) ||
		secretSet(oldCfg.Twitter.APISecret) != secretSet(newCfg.Twitter.APISecret) ||
		secretSet(oldCfg.Twitter.AccessToken) != secretSet(newCfg.Twitter.AccessToken) ||
		secretSet(oldCfg.Twitter.AccessSecret) != secretSet(newCfg.Twitter.AccessSecret) ||
		strings.TrimSpace(oldCfg.Twitter.Username) != strings.TrimSpace(newCfg.Twitter.Username) ||
		strings.TrimSpace(oldCfg.Twitter.BaseURL) != strings.TrimSpace(newCfg.Twitter.BaseURL) {
		changed = append(changed, "twitter")
		attrs = append(attrs,
			logx.Bool("twitter.credentials_set", secretSet(newCfg.Twitter.APIKey) && secretSet(newCfg.Twitter.AccessToken)),
			logx.String("twitter.username", strings.TrimSpace(newCfg.Twitter.Username)),
			logx.Bool("twitter.base_url_set", strings.TrimSpace(newCfg.Twitter.BaseURL) != ""),
		)
	}

	// Providers (never log keys)
	oG, nG := derefGemini(oldCfg.Providers.Gemini), derefGemini(newCfg.Providers.Gemini)
	oA, nA := derefAzure(oldCfg.Providers.Azure), derefAzure(newCfg.Providers.Azure)
	if strings.TrimSpace(oldCfg.Providers.Default) != strings.TrimSpace(newCfg.Providers.Default) ||
		(oldCfg.Providers.Gemini != nil) != (newCfg.Providers.Gemini != nil) ||
		(oldCfg.Providers.Azure != nil) != (newCfg.Providers.Azure != nil) ||
		secretSet(oG.APIKey) != secretSet(nG.APIKey) ||
		strings.TrimSpace(oG.Model) != strings.TrimSpace(nG.Model) ||
		strings.TrimSpace(oG.BaseURL) != strings.TrimSpace(nG.BaseURL) ||
		secretSet(oA.APIKey) != secretSet(nA.APIKey) ||
		strings.TrimSpace(oA.Endpoint) != strings.TrimSpace(nA.Endpoint) ||
		strings.TrimSpace(oA.Deployment) != strings.TrimSpace(nA.Deployment) ||
		strings.TrimSpace(oA.APIVersion) != strings.TrimSpace(nA.APIVersion) {
		changed = append(changed, "providers")
		attrs = append(attrs,
			logx.String("providers.default", strings.TrimSpace(newCfg.Providers.Default)),
			logx.Bool("providers.gemini_present", newCfg.Providers.Gemini != nil),
			logx.Bool("providers.azure_present", newCfg.Providers.Azure != nil),
			logx.String("providers.gemini_model", strings.TrimSpace(nG.Model)),
			logx.String("providers.azure_deployment", strings.TrimSpace(nA.Deployment)),
		)
	}

	// Agent
	if oldCfg.Agent.MaxReplies != newCfg.Agent.MaxReplies ||
		strings.TrimSpace(oldCfg.Agent.ReplyInterval) != strings.TrimSpace(newCfg.Agent.ReplyInterval) ||
		oldCfg.Agent.Retry != newCfg.Agent.Retry {
		changed = append(changed, "agent")
		attrs = append(attrs,
			logx.Int("agent.max_replies", newCfg.Agent.MaxReplies),
			logx.String("agent.reply_interval", strings.TrimSpace(newCfg.Agent.ReplyInterval)),
			logx.Int("agent.retry_attempts", newCfg.Agent.Retry.Attempts),
			logx.String("agent.retry_base", strings.TrimSpace(newCfg.Agent.Retry.Base)),
		)
	}

	// Server (never log the JWT secret)
	oSrv, nSrv := derefServer(oldCfg.Server), derefServer(newCfg.Server)
	if (oldCfg.Server != nil) != (newCfg.Server != nil) ||
		oSrv.Enabled != nSrv.Enabled ||
		strings.TrimSpace(oSrv.Addr) != strings.TrimSpace(nSrv.Addr) ||
		secretSet(oSrv.JWTSecret) != secretSet(nSrv.JWTSecret) ||
		oSrv.RateLimit != nSrv.RateLimit ||
		strings.TrimSpace(oSrv.ReadTimeout) != strings.TrimSpace(nSrv.ReadTimeout) ||
		strings.TrimSpace(oSrv.WriteTimeout) != strings.TrimSpace(nSrv.WriteTimeout) ||
		strings.TrimSpace(oSrv.IdleTimeout) != strings.TrimSpace(nSrv.IdleTimeout) {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.Bool("server.enabled", nSrv.Enabled),
			logx.String("server.addr", strings.TrimSpace(nSrv.Addr)),
			logx.Bool("server.jwt_secret_set", secretSet(nSrv.JWTSecret)),
			logx.Int("server.rate_requests", nSrv.RateLimit.Requests),
			logx.String("server.rate_window", strings.TrimSpace(nSrv.RateLimit.Window)),
		)
	}

	// Mentions
	oM, nM := derefMentions(oldCfg.Mentions), derefMentions(newCfg.Mentions)
	if (oldCfg.Mentions != nil) != (newCfg.Mentions != nil) || oM != nM {
		changed = append(changed, "mentions")
		attrs = append(attrs,
			logx.Bool("mentions.enabled", nM.Enabled),
			logx.String("mentions.spec", strings.TrimSpace(nM.Spec)),
		)
	}

	// Storage. Nil means the in-memory store.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func secretSet(s string) bool { return strings.TrimSpace(s) != "" }

func derefGemini(g *GeminiConfig) GeminiConfig {
	if g == nil {
		return GeminiConfig{}
	}
	return *g
}

func derefAzure(a *AzureConfig) AzureConfig {
	if a == nil {
		return AzureConfig{}
	}
	return *a
}

func derefServer(s *ServerConfig) ServerConfig {
	if s == nil {
		return ServerConfig{}
	}
	return *s
}

func derefMentions(m *MentionsConfig) MentionsConfig {
	if m == nil {
		return MentionsConfig{}
	}
	return *m
}
