// Package planstore moves serialized plans between the plan and apply
// phases. A URI starting with s3:// routes to object storage, anything
// else is a filesystem path. Plans round-trip losslessly; apply
// executes exactly the document plan wrote.
package planstore
