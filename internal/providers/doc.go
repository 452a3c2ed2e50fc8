// Package providers implements the reasoning [Engine] boundary for each
// supported LLM provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini), and
// Ollama / LMStudio for local models. Anthropic and OpenAI honour a forced
// [Tool] and return tool-use blocks; Gemini and Ollama always reply with text.
//
// All providers share one HTTP helper that classifies failures into typed
// errors (rate limit, auth, server, status, network) and a retry helper with
// exponential back-off for rate-limit and server errors. HTTP clients are
// plain fields so that tests can redirect calls to local httptest servers.
//
// Use [New] to obtain an Engine by provider name and model string.
package providers
