// Package question manages the audience Q&A pipeline: submissions from the
// audience page, AI relevance filtering, manual picking by the operator, and
// answer bookkeeping. The manager keeps everything in memory for the live
// session; an optional Store mirrors writes to durable storage and is never
// allowed to fail a submission.
package question
