// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The audit pipeline is assembled here: IndexBuilder embeds chunks into a
// RetrievalIndex, Answerer answers one question against it, QnAService
// drives the session state machine over a question list, DecisionService
// reduces the answers to a verdict, and AnalysisService runs all of it
// for one report.
package services
