/*
Package game runs the seller game one tick at a time.

Each tick a single question is generated and dispatched concurrently to every
registered player. Every dispatch yields an Outcome which Evaluate turns into a
Decision: a cash delta, the online status of the player after the tick and the
feedback to send back. Decisions are applied to the player registry as soon as
they are available; once every player's pipeline has settled the registry is
asked to checkpoint the balances for the tick.

A pipeline that fails (as opposed to an Outcome with a failure status, which is
a regular input of Evaluate) fails the whole tick: no checkpoint is taken and
the remaining pipelines are abandoned. Mutations applied before the failure are
kept.
*/
package game
