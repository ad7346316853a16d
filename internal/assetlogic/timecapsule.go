package assetlogic

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

const TypeTimeCapsule = "TIME_CAPSULE"

// timeCapsule seals a message until a reveal date chosen at mint time.
type timeCapsule struct {
	base
}

func init() {
	Register(&timeCapsule{})
}

func (h *timeCapsule) Type() string        { return TypeTimeCapsule }
func (h *timeCapsule) DisplayName() string { return "Time Capsule" }

func (h *timeCapsule) Mint(owner string, ownerName string, input map[string]any) (map[string]any, error) {
	content := inputString(input, "content")
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", model.ErrorMalformedMessage)
	}
	days, ok := inputFloat(input, "days_to_reveal")
	if !ok || days <= 0 {
		return nil, fmt.Errorf("%w: days_to_reveal must be positive", model.ErrorMalformedMessage)
	}

	name := inputString(input, "name")
	if name == "" {
		name = "Time Capsule"
	}

	return map[string]any{
		"name":      name,
		"content":   content,
		"reveal_at": float64(time.Now().Unix()) + days*86400,
		"revealed":  false,
		"sealed_by": ownerName,
	}, nil
}

func (h *timeCapsule) ValidateAction(a *model.Asset, action string, input map[string]any, requester string) error {
	if action != "reveal" {
		return model.ErrorUnknownAction
	}
	data := a.Data()
	if revealed, _ := data["revealed"].(bool); revealed {
		return fmt.Errorf("%w: capsule already revealed", model.ErrorUnknownAction)
	}
	if float64(time.Now().Unix()) < dataFloat(data, "reveal_at") {
		return fmt.Errorf("%w: the capsule is still sealed", model.ErrorCooldownActive)
	}
	return nil
}

func (h *timeCapsule) PerformAction(tx *sqlx.Tx, a *model.Asset, action string, input map[string]any, requester string) (*ActionResult, error) {
	data := a.Data()
	data["revealed"] = true
	return &ActionResult{
		Updated: data,
		Detail:  fmt.Sprintf("The capsule opens: %s", dataString(data, "content")),
	}, nil
}

func (h *timeCapsule) TradeDescription(a *model.Asset) string {
	data := a.Data()
	state := "sealed"
	if revealed, _ := data["revealed"].(bool); revealed {
		state = "revealed"
	}
	return fmt.Sprintf("%s (%s)", dataString(data, "name"), state)
}

func (h *timeCapsule) AdminMintConfig() MintConfig {
	return MintConfig{
		HelpText:    "content is the sealed message; days_to_reveal sets how long it stays sealed.",
		DefaultJSON: `{"name": "Time Capsule", "content": "", "days_to_reveal": 30}`,
	}
}
