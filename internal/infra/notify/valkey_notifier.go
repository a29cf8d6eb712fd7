package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// ValkeyNotifier pushes notifications onto a per-doctor Valkey list that the
// delivery worker drains.
type ValkeyNotifier struct {
	client valkey.Client
	prefix string
}

// NewValkeyNotifier constructs a notifier backed by Valkey.
func NewValkeyNotifier(client valkey.Client, prefix string) *ValkeyNotifier {
	if prefix == "" {
		prefix = "notify"
	}
	return &ValkeyNotifier{client: client, prefix: prefix}
}

// Notify implements faq.Notifier.
func (n *ValkeyNotifier) Notify(ctx context.Context, note faq.Notification) error {
	if note.DoctorID == "" {
		return fmt.Errorf("notification has no doctor id")
	}
	payload, err := json.Marshal(note)
	if err != nil {
		return err
	}
	cmd := n.client.B().Lpush().Key(n.queueKey(note.DoctorID)).Element(string(payload)).Build()
	return n.client.Do(ctx, cmd).Error()
}

func (n *ValkeyNotifier) queueKey(doctorID string) string {
	return fmt.Sprintf("%s:doctor:%s", n.prefix, doctorID)
}

var _ faq.Notifier = (*ValkeyNotifier)(nil)
