package notifyrun

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/dojoquest-backend/internal/platform/httpx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

type Activities struct {
	Log   *logger.Logger
	Email services.EmailDispatcher
}

func (a *Activities) SendEmail(ctx context.Context, msg services.EmailMessage) error {
	if a == nil || a.Email == nil {
		return temporal.NewNonRetryableApplicationError("email delivery not configured", "not_configured", nil)
	}
	err := a.Email.DispatchEmail(ctx, msg)
	if err == nil {
		return nil
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) && !httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode()) {
		return temporal.NewNonRetryableApplicationError(fmt.Sprintf("send email: %v", err), "send_failed", err)
	}
	if a.Log != nil {
		a.Log.Warn("Email send failed; Temporal will retry", "category", msg.Category, "error", err)
	}
	return err
}
