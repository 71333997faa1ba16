// Package core contains the shared data model of Roundtable: agent identity
// and configuration, conversation turns and transcripts, the typed message
// envelope used by the bus, routing decisions, the Responder collaborator
// contract and the error taxonomy. It has no dependencies on the
// orchestration packages so every layer can import it freely.
package core
