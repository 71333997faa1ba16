// Package responder hosts implementations of the core.Responder collaborator
// contract: the external language-model call that produces the dispatcher's
// routing replies and the specialists' answers. The Mock implementation is
// deterministic and suited for tests and demos; the anthropic and openai
// subpackages adapt the official provider SDKs.
package responder
