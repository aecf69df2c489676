// Package schema publishes a JSON Schema for the bot wire records, so
// bot authors in other languages can validate their encoders against
// the engine's expectations.
package schema

import (
	"github.com/invopop/jsonschema"

	"github.com/lachiemurray/PhotonAi/internal/bot"
)

// Build returns the schema for one protocol exchange: a request frame
// from the engine or a response frame from the bot.
func Build() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	request := reflector.Reflect(&bot.Request{})
	request.Version = ""
	request.Title = "Request"
	request.Description = "One engine-to-bot frame: the applied step and the controlled ship's id (null when the ship is gone and the bot should finalize)."

	response := reflector.Reflect(&bot.Response{})
	response.Version = ""
	response.Title = "Response"
	response.Description = "One bot-to-engine frame: the control to apply, or null to leave the previous control in place."

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "PhotonAI Bot Wire Protocol",
		Description: "Length-prefixed msgpack records exchanged on the bot subprocess boundary; this schema describes their logical shape.",
		OneOf: []*jsonschema.Schema{
			request,
			response,
		},
	}
}
