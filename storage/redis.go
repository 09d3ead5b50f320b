package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/Coachraj/Reminder-tool/domain"
)

// Versioned key scheme for the durable blob. The collections are stored as
// independent full JSON arrays and rewritten wholesale on every save.
const (
	keyTasks    = "remindme:v1:tasks"
	keyEmails   = "remindme:v1:emails"
	keySettings = "remindme:v1:settings"
	keyContacts = "remindme:v1:contacts"
)

// RedisPersister keeps the serialized state in Redis without expiry.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func (p *RedisPersister) Save(ctx context.Context, st State) error {
	if st.Tasks == nil {
		st.Tasks = []domain.Task{}
	}
	if st.Emails == nil {
		st.Emails = []domain.Email{}
	}
	if st.Contacts == nil {
		st.Contacts = []string{}
	}
	tasks, err := json.Marshal(st.Tasks)
	if err != nil {
		return err
	}
	emails, err := json.Marshal(st.Emails)
	if err != nil {
		return err
	}
	settings, err := json.Marshal(st.Settings)
	if err != nil {
		return err
	}
	contacts, err := json.Marshal(st.Contacts)
	if err != nil {
		return err
	}
	_, err = p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyTasks, tasks, 0)
		pipe.Set(ctx, keyEmails, emails, 0)
		pipe.Set(ctx, keySettings, settings, 0)
		pipe.Set(ctx, keyContacts, contacts, 0)
		return nil
	})
	return err
}

func (p *RedisPersister) Load(ctx context.Context) (State, bool, error) {
	var st State
	found := false

	if data, err := p.client.Get(ctx, keyTasks).Bytes(); err == nil {
		if err := json.Unmarshal(data, &st.Tasks); err != nil {
			return State{}, false, err
		}
		found = true
	} else if err != redis.Nil {
		return State{}, false, err
	}

	if data, err := p.client.Get(ctx, keyEmails).Bytes(); err == nil {
		if err := json.Unmarshal(data, &st.Emails); err != nil {
			return State{}, false, err
		}
		found = true
	} else if err != redis.Nil {
		return State{}, false, err
	}

	if data, err := p.client.Get(ctx, keySettings).Bytes(); err == nil {
		if err := json.Unmarshal(data, &st.Settings); err != nil {
			return State{}, false, err
		}
		found = true
	} else if err != redis.Nil {
		return State{}, false, err
	}

	if data, err := p.client.Get(ctx, keyContacts).Bytes(); err == nil {
		if err := json.Unmarshal(data, &st.Contacts); err != nil {
			return State{}, false, err
		}
		found = true
	} else if err != redis.Nil {
		return State{}, false, err
	}

	return st, found, nil
}
