// Package naming provides the canonical identity forms for every
// resource kind netreserve plans.
//
// Resource paths, IAM member strings and secondary range names are
// derived here and nowhere else, so a plan and its apply always agree
// on the identity of the thing they touch. Validation of operator
// supplied names also lives here, including the project-id naming
// policy (the second dash-separated segment must come from an allowed
// list).
package naming
