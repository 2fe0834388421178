// Package repositories implements SQLite persistence for domain entities.
//
// [CredentialRepository] implements models.Repository for [models.Credential] and adds [CredentialRepository.Put],
// an upsert used when a fresh token replaces the stored one.
package repositories
