// Package llm provides a provider-neutral text generation client. Gemini is
// reached through the genai SDK; OpenAI and Anthropic over their HTTP APIs.
// Clients can be wrapped with rate limiting and response caching.
package llm
