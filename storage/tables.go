package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

const statePartition = "remindme"

// stateEntity holds one serialized collection as a single table entity, so
// the overwrite-whole-blob semantics of the store carry over unchanged.
type stateEntity struct {
	aztables.Entity
	Payload string `json:"Payload"`
}

// TablePersister keeps the serialized state in an Azure Table, one entity
// per collection slot.
type TablePersister struct {
	table *aztables.Client
}

// NewTablePersister creates a persister from the given connection string.
func NewTablePersister(connStr, tableName string) (*TablePersister, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TablePersister{table: svc.NewClient(tableName)}, nil
}

func (p *TablePersister) Save(ctx context.Context, st State) error {
	slots := []struct {
		rowKey string
		value  any
	}{
		{"tasks", st.Tasks},
		{"emails", st.Emails},
		{"settings", st.Settings},
		{"contacts", st.Contacts},
	}
	for _, slot := range slots {
		data, err := json.Marshal(slot.value)
		if err != nil {
			return err
		}
		ent := stateEntity{
			Entity:  aztables.Entity{PartitionKey: statePartition, RowKey: slot.rowKey},
			Payload: string(data),
		}
		payload, err := json.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := p.table.UpsertEntity(ctx, payload, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *TablePersister) Load(ctx context.Context) (State, bool, error) {
	var st State
	found := false

	slots := []struct {
		rowKey string
		target any
	}{
		{"tasks", &st.Tasks},
		{"emails", &st.Emails},
		{"settings", &st.Settings},
		{"contacts", &st.Contacts},
	}
	for _, slot := range slots {
		resp, err := p.table.GetEntity(ctx, statePartition, slot.rowKey, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.StatusCode == 404 {
				continue
			}
			return State{}, false, err
		}
		var ent stateEntity
		if err := json.Unmarshal(resp.Value, &ent); err != nil {
			return State{}, false, err
		}
		if err := json.Unmarshal([]byte(ent.Payload), slot.target); err != nil {
			return State{}, false, err
		}
		found = true
	}
	return st, found, nil
}
