package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newGuardApp(user *domain.User, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Get("/guarded",
		func(c *fiber.Ctx) error {
			if user != nil {
				c.Locals(principalKey, &Principal{User: user})
			}
			return c.Next()
		},
		guard,
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) },
	)
	return app
}

func TestRequirePermissionGrantMatrix(t *testing.T) {
	store := memory.NewStore()
	agentRole := store.AddRole(domain.RoleAgent)
	adminRole := store.AddRole(domain.RoleAdmin)
	store.GrantPermission(agentRole.ID, domain.PermTicketsManage)
	store.GrantPermission(adminRole.ID, domain.PermTicketsManage)
	store.GrantPermission(adminRole.ID, domain.PermTicketsDelete)
	agent := store.AddUser("Ann", "Agent", "ann@example.com", agentRole, true)
	admin := store.AddUser("Ada", "Admin", "ada@example.com", adminRole, true)

	cases := []struct {
		name       string
		user       *domain.User
		permission string
		wantStatus int
	}{
		{"agent holds manage", &agent, domain.PermTicketsManage, http.StatusOK},
		{"agent lacks delete", &agent, domain.PermTicketsDelete, http.StatusForbidden},
		{"admin holds delete", &admin, domain.PermTicketsDelete, http.StatusOK},
		{"anonymous rejected", nil, domain.PermTicketsManage, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGuardApp(tc.user, RequirePermission(store.Repos().Users, tc.permission))
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestRequireStaffRejectsRequester(t *testing.T) {
	store := memory.NewStore()
	userRole := store.AddRole(domain.RoleUser)
	requester := store.AddUser("Rae", "Requester", "rae@example.com", userRole, true)

	app := newGuardApp(&requester, RequireStaff())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
