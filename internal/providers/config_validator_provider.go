package providers

import (
	"fmt"
	"ringsync/internal/models"
	"ringsync/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}
	if _, err := models.ParseUTCOffset(c.conf.Api.HeartRateOffset); err != nil {
		return fmt.Errorf("api.heartRateOffset: %w", err)
	}
	if c.conf.Metrics.Textfile != "" && !c.conf.Metrics.Enabled {
		return fmt.Errorf("metrics.textfile is set but metrics are disabled")
	}
	return nil
}
