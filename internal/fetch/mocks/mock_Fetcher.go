// Package mocks provides test doubles for the fetch package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	fetch "github.com/sells-group/profile-cli/internal/fetch"
)

// MockFetcher is a mock type for the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

// Fetch provides a mock function with given fields: ctx, url
func (_m *MockFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	ret := _m.Called(ctx, url)

	if len(ret) == 0 {
		panic("no return value specified for Fetch")
	}

	var r0 *fetch.Page
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*fetch.Page, error)); ok {
		return rf(ctx, url)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *fetch.Page); ok {
		r0 = rf(ctx, url)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*fetch.Page)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, url)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockFetcher creates a new instance of MockFetcher. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockFetcher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockFetcher {
	m := &MockFetcher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
