// Package s3 provides the object-store side of the plan store.
//
// It speaks to any S3-compatible endpoint through aws-sdk-go-v2.
// Credentials come from the standard AWS environment variables; CI
// injects them per job.
package s3
