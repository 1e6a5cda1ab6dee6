package salonapi

import (
	"context"
	"fmt"
	"net/url"
)

// CreateBooking は予約を作成する。
func (c *Client) CreateBooking(ctx context.Context, req BookingCreate) (Booking, error) {
	var out Booking
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.PostJSON(ctx, "/bookings/", req, &out)
	return out, err
}

// ListBookings は利用者の予約一覧を取得する。statusが空の場合は全件。
func (c *Client) ListBookings(ctx context.Context, status BookingStatus) ([]Booking, error) {
	if err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	path := "/bookings/"
	if status != "" {
		path += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	var out []Booking
	if err := c.http.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBooking は予約を1件取得する。
func (c *Client) GetBooking(ctx context.Context, id int64) (Booking, error) {
	var out Booking
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.GetJSON(ctx, fmt.Sprintf("/bookings/%d", id), &out)
	return out, err
}

// CancelBooking は予約をキャンセルする。
func (c *Client) CancelBooking(ctx context.Context, id int64) (Booking, error) {
	var out Booking
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.PatchJSON(ctx, fmt.Sprintf("/bookings/%d/cancel", id), nil, &out)
	return out, err
}

// RescheduleBooking は予約の日時を変更する。変更後の状態はAPIが pending に戻す。
func (c *Client) RescheduleBooking(ctx context.Context, id int64, req BookingReschedule) (Booking, error) {
	var out Booking
	if err := requireIdentity(ctx); err != nil {
		return out, err
	}
	err := c.http.PatchJSON(ctx, fmt.Sprintf("/bookings/%d/reschedule", id), req, &out)
	return out, err
}
