// Package aggregates defines the error vocabulary shared by transactional write
// boundaries (awarding XP, resolving a match, verifying a submission).
package aggregates
