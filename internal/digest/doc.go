// Package digest resolves the three processing-phase tags of a submission to
// immutable container image digests.
//
// Tags map to docker repository/tag pairs through an execution-tags file
// (TagCatalog). ScriptResolver then asks an external script for the digest of
// that image; Static serves fixed digests for tests and dry runs. ResolveAll
// calls a Resolver exactly once per phase so every task of a job runs the same
// pipeline versions.
package digest
