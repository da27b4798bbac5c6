package ontology

import "context"

// CrossWorkspaceACL gates whether a query originating in one workspace may
// read another workspace's data graph via AdditionalWorkspaces. This is a
// required integration point: the fabric has no way to know an operator's
// actual tenancy rules, so it ships a default-deny stub rather than
// silently permitting cross-workspace reads.
type CrossWorkspaceACL interface {
	Allow(ctx context.Context, tenant, fromWorkspace, toWorkspace string) bool
}

// DenyAllACL is the default-deny CrossWorkspaceACL: every cross-workspace
// read is rejected until an operator supplies a real policy.
type DenyAllACL struct{}

func (DenyAllACL) Allow(ctx context.Context, tenant, fromWorkspace, toWorkspace string) bool {
	return fromWorkspace == toWorkspace
}

// FilterAdditionalWorkspaces drops any workspace in candidates the ACL does
// not allow fromWorkspace to read, preserving order.
func FilterAdditionalWorkspaces(ctx context.Context, acl CrossWorkspaceACL, tenant, fromWorkspace string, candidates []string) []string {
	if acl == nil {
		acl = DenyAllACL{}
	}
	allowed := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if acl.Allow(ctx, tenant, fromWorkspace, candidate) {
			allowed = append(allowed, candidate)
		}
	}
	return allowed
}
