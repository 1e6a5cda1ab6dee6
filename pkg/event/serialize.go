package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// New は新しいイベントを生成する。dataはJSON形式にシリアライズされる。
func New(aggregateType AggregateType, aggregateID int64, eventType Type, telegramUserID int64, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}

	return &Event{
		ID:             uuid.New().String(),
		AggregateID:    strconv.FormatInt(aggregateID, 10),
		AggregateType:  aggregateType,
		EventType:      eventType,
		TelegramUserID: telegramUserID,
		Data:           jsonData,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// DecodeData はイベントのDataフィールドを指定された型にデシリアライズする。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}
