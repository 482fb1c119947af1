package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "dispatcher",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "*"},
				{Object: "/admin/orders/:id", Action: "*"},
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/couriers", Action: "*"},
				{Object: "/admin/couriers/:id", Action: "*"},
				{Object: "/admin/dispatch/orders-to-dispatch", Action: "GET"},
				{Object: "/admin/dispatch/sessions", Action: "*"},
				{Object: "/admin/dispatch/sessions/:id", Action: "*"},
				{Object: "/admin/dispatch/sessions/:id/export", Action: "GET"},
				{Object: "/admin/dispatch/sessions/:id/import", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/dispatch/sessions/:id/process", Action: "POST"},
				{Object: "/admin/settlements", Action: "*"},
				{Object: "/admin/settlements/:id", Action: "*"},
				{Object: "/admin/settlements/:id/pay", Action: "POST"},
				{Object: "/admin/settlements/manual-reconciliation", Action: "POST"},
				{Object: "/admin/settlements/export", Action: "GET"},
				{Object: "/admin/settlements/summary", Action: "GET"},
				{Object: "/admin/settlements/pending-by-carrier", Action: "GET"},
				{Object: "/admin/settlements/shipped-orders-grouped", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "store_manager",
			Inherits: []string{"dispatcher", "finance"},
			Policies: []Policy{
				{Object: "/admin/carriers", Action: "*"},
				{Object: "/admin/carriers/:id", Action: "*"},
				{Object: "/admin/carriers/:id/zones", Action: "*"},
				{Object: "/admin/carriers/:id/zones/:zone_id", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}
