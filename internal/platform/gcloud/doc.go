// Package gcloud implements the reconcile.Client contract over the
// gcloud CLI. The source of truth for every operation is the CLI's
// observable contract (argv, exit codes, stderr text), not a cloud SDK:
// subnets, shared-VPC org policies, project IAM policies, service
// accounts, API keys, service attachments and Workbench notebooks are
// all driven through one injectable Runner so tests can script the
// binary away.
//
// Reads (describe, list, get-iam-policy) are retried on transient
// failures. Mutations run exactly once: a timed-out create may still
// have landed, and a blind retry could double-provision.
package gcloud
