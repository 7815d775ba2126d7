package service

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/noah-isme/guardforce-api/pkg/codegen"
)

// Identifier schemes issued by the services.
var (
	employeeIDScheme = codegen.Scheme{Width: 5}
	beatCodeScheme   = codegen.Scheme{Base: "BEAT", Width: 3}
	staffIDScheme    = codegen.Scheme{Base: "ADM", Width: 3}
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type codeGenerator interface {
	Generate(ctx context.Context, partition, prefix string) (string, error)
}

type employeeIDSource interface {
	EmployeeIDs(ctx context.Context, partition, like string) ([]string, error)
	EmployeeIDExists(ctx context.Context, code string) (bool, error)
}

type beatCodeSource interface {
	Codes(ctx context.Context, locationID, like string) ([]string, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type staffIDSource interface {
	StaffIDs(ctx context.Context, locationID, like string) ([]string, error)
	StaffIDExists(ctx context.Context, code string) (bool, error)
}

// NewEmployeeIDGenerator issues PREFIXNNNNN employee IDs across all users.
func NewEmployeeIDGenerator(users employeeIDSource, metrics *MetricsService, opts ...codegen.Option) *codegen.Generator {
	source := codegen.SourceFuncs{List: users.EmployeeIDs, Exists: users.EmployeeIDExists}
	return codegen.NewGenerator(employeeIDScheme, source, append(opts, collisionHook(metrics))...)
}

// NewBeatCodeGenerator issues BEAT-PFX-NNN codes partitioned by location.
func NewBeatCodeGenerator(beats beatCodeSource, metrics *MetricsService, opts ...codegen.Option) *codegen.Generator {
	source := codegen.SourceFuncs{List: beats.Codes, Exists: beats.CodeExists}
	return codegen.NewGenerator(beatCodeScheme, source, append(opts, collisionHook(metrics))...)
}

// NewStaffIDGenerator issues ADM-PFX-NNN staff IDs partitioned by location.
func NewStaffIDGenerator(admins staffIDSource, metrics *MetricsService, opts ...codegen.Option) *codegen.Generator {
	source := codegen.SourceFuncs{List: admins.StaffIDs, Exists: admins.StaffIDExists}
	return codegen.NewGenerator(staffIDScheme, source, append(opts, collisionHook(metrics))...)
}

func collisionHook(metrics *MetricsService) codegen.Option {
	return codegen.WithCollisionHook(func(scheme codegen.Scheme, _, _ string) {
		name := scheme.Base
		if name == "" {
			name = "EMP"
		}
		metrics.IdentifierCollision(name)
	})
}

func randomAlphanumeric(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}
