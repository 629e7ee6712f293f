// Package heuristic provides deterministic, model-free baselines: commit
// message scoring and naive vulnerability pattern matching over diff patches.
package heuristic
