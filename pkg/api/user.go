package api

import (
	"context"
	"net/http"
)

// User is the profile of the logged-in user.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	OrganizationID string
}

func (c *Client) User(ctx context.Context) (User, error) {
	s, err := c.Session()
	if err != nil {
		return User{}, err
	}
	res, err := c.do(ctx, request{op: "load user", method: http.MethodGet, path: c.orgPath(s, "users", s.UserID)})
	if err != nil {
		return User{}, err
	}
	u := unwrap(res.BodyString, "user", "data")
	out := User{
		ID:             u.Get("id").String(),
		FirstName:      u.Get("firstName").String(),
		LastName:       u.Get("lastName").String(),
		Email:          u.Get("email").String(),
		OrganizationID: u.Get("organizationId").String(),
	}
	if out.ID == "" {
		out.ID = u.Get("_id").String()
	}
	if out.OrganizationID == "" {
		out.OrganizationID = s.OrganizationID
	}
	return out, nil
}
