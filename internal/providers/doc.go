// Package providers implements the Reasoner interface for each supported
// reasoning service.
//
// Supported providers: any OpenAI-compatible chat-completions endpoint (the
// default is NVIDIA's hosted endpoint), Anthropic, and Ollama / LMStudio for
// local models.
//
// Every call is a single attempt bounded by the injected *http.Client's
// timeout. A rejected credential surfaces as *AuthError, any other non-200
// status as *StatusError.
//
// Use [New] to obtain a Reasoner from [Settings].
package providers
