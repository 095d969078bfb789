package naming

import "fmt"

// Naming functions for planned resources.
// Every identity that appears in a plan is derived through one of
// these, so apply never re-derives a name differently than plan did.

// SubnetPath returns the full resource path of a shared-VPC subnet,
// as used in org-policy allowedValues entries.
func SubnetPath(hostProject, region, name string) string {
	return fmt.Sprintf("projects/%s/regions/%s/subnetworks/%s", hostProject, region, name)
}

// PodsRangeName returns the default GKE pods secondary range name.
func PodsRangeName(subnet string) string {
	return fmt.Sprintf("%s-pods", subnet)
}

// ServicesRangeName returns the default GKE services secondary range
// name.
func ServicesRangeName(subnet string) string {
	return fmt.Sprintf("%s-services", subnet)
}

// ServiceAccountEmail returns the email of a service account in a
// project.
func ServiceAccountEmail(name, project string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", name, project)
}

// ServiceAccountMember returns the IAM member string of a service
// account.
func ServiceAccountMember(email string) string {
	return fmt.Sprintf("serviceAccount:%s", email)
}

// GroupMember returns the IAM member string of a group.
func GroupMember(email string) string {
	return fmt.Sprintf("group:%s", email)
}

// GKEServiceAgent returns the GKE service agent of a project, the
// principal a PSC subnet is shared with.
func GKEServiceAgent(projectNumber string) string {
	return fmt.Sprintf("service-%s@gcp-sa-gke.iam.gserviceaccount.com", projectNumber)
}

// ServiceAttachmentPath returns the full resource path of a service
// attachment.
func ServiceAttachmentPath(project, region, name string) string {
	return fmt.Sprintf("projects/%s/regions/%s/serviceAttachments/%s", project, region, name)
}

// NotebookPath returns the full resource path of a workbench notebook
// instance.
func NotebookPath(project, location, name string) string {
	return fmt.Sprintf("projects/%s/locations/%s/instances/%s", project, location, name)
}

// SharedVPCPolicy returns the org-policy resource name that restricts
// shared-VPC subnet use for a service project.
func SharedVPCPolicy(project string) string {
	return fmt.Sprintf("projects/%s/policies/compute.restrictSharedVpcSubnetworks", project)
}

// SandboxVolume returns the data volume name of a sandbox server.
func SandboxVolume(server string) string {
	return fmt.Sprintf("%s-data", server)
}
