package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type ConnectBot struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	ServerIP     string `json:"serverIp"`
	Version      string `json:"version"`
}

func (p ConnectBot) validate() error {
	return required(map[string]string{
		"connectionId": p.ConnectionID,
		"username":     p.Username,
		"serverIp":     p.ServerIP,
	})
}

type DisconnectBot struct {
	ConnectionID string `json:"connectionId"`
}

func (p DisconnectBot) validate() error {
	return required(map[string]string{"connectionId": p.ConnectionID})
}

type SendChat struct {
	ConnectionID string `json:"connectionId"`
	Message      string `json:"message"`
}

func (p SendChat) validate() error {
	return required(map[string]string{"connectionId": p.ConnectionID, "message": p.Message})
}

type SendCommand struct {
	ConnectionID string `json:"connectionId"`
	Command      string `json:"command"`
}

func (p SendCommand) validate() error {
	return required(map[string]string{"connectionId": p.ConnectionID, "command": p.Command})
}

type MoveBot struct {
	ConnectionID string `json:"connectionId"`
	Direction    string `json:"direction"`
	Action       string `json:"action"`
}

func (p MoveBot) validate() error {
	return required(map[string]string{
		"connectionId": p.ConnectionID,
		"direction":    p.Direction,
		"action":       p.Action,
	})
}

type validator interface {
	validate() error
}

// DecodePayload unmarshals env.Data into dst and checks required fields.
func DecodePayload[T validator](env Envelope) (T, error) {
	var p T
	if len(env.Data) == 0 {
		return p, fmt.Errorf("%w: missing data", ErrInvalidFormat)
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return p, p.validate()
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
}
