// Package flags implements the CareGuide feature flag registry, with
// priority resolution from persisted overrides, environment values, and
// compiled-in defaults, plus change subscription so every process sharing
// the override store observes flips without polling.
package flags
