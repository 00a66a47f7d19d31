package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-featuregate/gate/guard"
)

// Feature keys gated at runtime. The flows behind two factor, social login
// and password history are declared here ahead of their implementations so
// deployments can pre-seed gate configuration.
const (
	FeatureTwoFactorAuth   = "auth.two_factor"
	FeatureSocialLogin     = "auth.social_login"
	FeatureAccountLockout  = "auth.account_lockout"
	FeaturePasswordHistory = "auth.password_history"
	FeaturePasswordReset   = "auth.password_reset"
	FeatureRegistration    = "auth.registration"
)

var (
	ErrPasswordResetDisabled = errors.New("Password reset is disabled", errors.CategoryAuthz).
					WithTextCode("PASSWORD_RESET_DISABLED").
					WithCode(errors.CodeForbidden)

	ErrRegistrationDisabled = errors.New("Registration is disabled", errors.CategoryAuthz).
				WithTextCode("REGISTRATION_DISABLED").
				WithCode(errors.CodeForbidden)
)

func normalizeFeatureGateError(err error) error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return err
	}

	return errors.Wrap(err, errors.CategoryAuthz, "Feature gate check failed").
		WithCode(errors.CodeForbidden)
}

func requireFeatureGate(ctx context.Context, featureGate gate.FeatureGate, key string, disabledErr error) error {
	if featureGate == nil {
		return nil
	}
	return guard.Require(ctx, featureGate, key,
		guard.WithDisabledError(disabledErr),
		guard.WithErrorMapper(normalizeFeatureGateError),
	)
}
