package commands

import (
	"github.com/spf13/cobra"

	"github.com/netreserve/netreserve/cmd/netreserve/handlers"
)

// Plan returns the plan command group. Every subcommand runs a dry run
// against one backend and writes a reviewable plan file; nothing under
// plan ever mutates cloud state.
func Plan() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a change without applying it",
		Long: `Compute a change and write it to a plan file for review.

A plan resolves every name, path and address block up front. Applying the
plan later executes exactly what the file describes; nothing is recomputed
between the two phases.`,
	}

	cmd.AddCommand(planReservation())
	cmd.AddCommand(planRelease())
	cmd.AddCommand(planSubnet())
	cmd.AddCommand(planIAM())
	cmd.AddCommand(planResource())

	return cmd
}

func planReservation() *cobra.Command {
	var opts handlers.PlanReservationOptions

	cmd := &cobra.Command{
		Use:   "reservation",
		Short: "Reserve the next free CIDR block in a network view",
		Long: `Find the next free CIDR block of the requested size.

The view's supernets are searched in configured order and the first one
with a free block wins. The resulting plan reserves that block in Infoblox
when applied.

Examples:
  # Next free /24 in the corp view
  netreserve plan reservation --view corp --prefix 24 --name team-a-subnet

  # Write the plan to an S3 object for a later CI stage
  netreserve plan reservation --view corp --prefix 26 --name team-b \
    --out s3://netreserve-plans/team-b.json

Environment variables:
  INFOBLOX_USERNAME, INFOBLOX_PASSWORD: WAPI credentials (required)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.PlanReservation(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.View, "view", "", "Network view to allocate from (required)")
	cmd.Flags().IntVar(&opts.Prefix, "prefix", 0, "Prefix length of the requested block (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Reservation name, stored as the Infoblox comment (required)")
	cmd.Flags().StringVar(&opts.SiteCode, "site-code", "", "Site Code extensible attribute (default: from config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Plan destination, path or s3:// URI (default: plan dir)")
	_ = cmd.MarkFlagRequired("view")
	_ = cmd.MarkFlagRequired("prefix")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func planRelease() *cobra.Command {
	var opts handlers.PlanReleaseOptions

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release an existing CIDR reservation",
		Long: `Resolve an existing reservation for deletion by exact CIDR match.

Exactly one match in the view produces an actionable plan carrying the
reservation's backend reference. Zero matches produce a plan with nothing
to do. Several matches abort: the backing system holds duplicates and
picking one silently would be wrong.

Example:
  netreserve plan release --view corp --cidr 10.20.4.0/24`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.PlanRelease(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.View, "view", "", "Network view of the reservation (required)")
	cmd.Flags().StringVar(&opts.CIDR, "cidr", "", "Exact CIDR of the reservation (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Plan destination, path or s3:// URI (default: plan dir)")
	_ = cmd.MarkFlagRequired("view")
	_ = cmd.MarkFlagRequired("cidr")

	return cmd
}

func planSubnet() *cobra.Command {
	var opts handlers.PlanSubnetOptions

	cmd := &cobra.Command{
		Use:   "subnet",
		Short: "Create a shared-VPC subnet from reserved CIDRs",
		Long: `Plan a shared-VPC subnet in an infrastructure group's host project.

The CIDRs come from earlier reservation plans; this command resolves the
subnet path, secondary range names and sharing targets, then gates on the
subnet not existing yet. Applying creates the subnet and performs the
configured sharing (PSC service agent grant or service-project org
policy).

Examples:
  # Plain subnet
  netreserve plan subnet --group ml-platform --region europe-west3 \
    --name team-a --cidr 10.20.4.0/24

  # GKE subnet with secondary ranges and PSC sharing
  netreserve plan subnet --group ml-platform --region europe-west3 \
    --name team-a --cidr 10.20.4.0/24 --pods-cidr 100.64.0.0/24 \
    --services-cidr 100.64.1.0/26 --psc vertex`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.PlanSubnet(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "Infrastructure group from the configuration (required)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "GCP region of the subnet (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Subnet name (required)")
	cmd.Flags().StringVar(&opts.CIDR, "cidr", "", "Primary CIDR, from a reservation plan (required)")
	cmd.Flags().StringVar(&opts.PodsCIDR, "pods-cidr", "", "GKE pods secondary range CIDR")
	cmd.Flags().StringVar(&opts.ServicesCIDR, "services-cidr", "", "GKE services secondary range CIDR")
	cmd.Flags().StringVar(&opts.PSC, "psc", "", "PSC consumer name to share the subnet with")
	cmd.Flags().StringVar(&opts.ServiceProject, "service-project", "", "Service project to allow the subnet for")
	cmd.Flags().StringVar(&opts.Purpose, "purpose", "", "Subnet purpose, e.g. PRIVATE_SERVICE_CONNECT")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Plan destination, path or s3:// URI (default: plan dir)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("cidr")

	return cmd
}

func planIAM() *cobra.Command {
	var opts handlers.PlanIAMOptions

	cmd := &cobra.Command{
		Use:   "iam",
		Short: "Grant IAM roles on a project",
		Long: `Plan an IAM policy update granting roles to a service account and/or
a group.

The current policy is read, the grants are merged in, and the plan carries
the complete modified document with its etag. Applying writes exactly that
document; a policy changed in between surfaces as a conflict instead of a
lost update. A policy that already holds every grant produces a plan with
nothing to do.

Examples:
  netreserve plan iam --project acme-poc-ml --service-account trainer \
    --sa-bundle GenAI_DEVELOPER

  netreserve plan iam --project acme-poc-ml --group-email ml-team@acme.com \
    --group-roles roles/viewer,roles/monitoring.viewer`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.PlanIAM(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Target GCP project ID (required)")
	cmd.Flags().StringVar(&opts.ServiceAccount, "service-account", "", "Service account name or email to grant roles to")
	cmd.Flags().StringVar(&opts.GroupEmail, "group-email", "", "Group email to grant roles to")
	cmd.Flags().StringSliceVar(&opts.SARoles, "sa-roles", nil, "Roles for the service account")
	cmd.Flags().StringSliceVar(&opts.SABundles, "sa-bundle", nil, "Role bundles for the service account")
	cmd.Flags().StringSliceVar(&opts.GroupRoles, "group-roles", nil, "Roles for the group")
	cmd.Flags().StringSliceVar(&opts.GroupBundles, "group-bundle", nil, "Role bundles for the group")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Plan destination, path or s3:// URI (default: plan dir)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func planResource() *cobra.Command {
	var opts handlers.PlanResourceOptions

	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Create or delete a named cloud resource",
		Long: `Plan an existence-gated create (default) or delete of a named
resource.

Create plans describe the resource first and only become actionable when
it is absent; delete plans resolve the backend reference up front. Kinds
route to their backend automatically: service-account, api-key,
service-attachment and notebook go through gcloud, server, network and
ssh-key through Hetzner Cloud.

Examples:
  netreserve plan resource --kind service-account --project acme-poc-ml \
    --name trainer

  netreserve plan resource --kind notebook --project acme-poc-ml \
    --region europe-west3 --name alice-wb --param machine_type=n1-standard-4

  # Sandbox server with a minted SSH key
  netreserve plan resource --kind ssh-key --name sbx-alice-key --keygen
  netreserve plan resource --kind server --name sbx-alice \
    --param volume_size_gb=200 --param ssh_keys=sbx-alice-key

  netreserve plan resource --kind server --name sbx-alice --delete

Environment variables:
  HCLOUD_TOKEN: Hetzner Cloud API token (required for hcloud kinds)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.PlanResource(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Resource kind (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Resource name (required)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "GCP project ID (gcloud kinds)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "GCP region or location")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "Additional key=value parameter (repeatable)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "Plan a delete instead of a create")
	cmd.Flags().BoolVar(&opts.Keygen, "keygen", false, "Mint an SSH keypair for an ssh-key create")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Plan destination, path or s3:// URI (default: plan dir)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
