// Package chat implements the response pipeline behind Albert, the portfolio
// butler: prompt formatting, cooldown gating, response caching, inference with
// rate-limit retries, simulated incremental delivery and the per-conversation
// session controller.
package chat
