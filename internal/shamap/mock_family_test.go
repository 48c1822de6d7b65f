package shamap

import (
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockFamily is a hand-written gomock.Controller-backed double for
// Family, following the shape mockgen would generate from the
// interface in store.go. It exists for tests that need to assert
// exactly which hashes get Retrieve'd or Store'd, rather than relying
// on a real in-memory family's bookkeeping.
type MockFamily struct {
	ctrl     *gomock.Controller
	recorder *MockFamilyMockRecorder
}

type MockFamilyMockRecorder struct {
	mock *MockFamily
}

func NewMockFamily(ctrl *gomock.Controller) *MockFamily {
	m := &MockFamily{ctrl: ctrl}
	m.recorder = &MockFamilyMockRecorder{m}
	return m
}

func (m *MockFamily) EXPECT() *MockFamilyMockRecorder { return m.recorder }

func (m *MockFamily) Retrieve(hash [32]byte) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Retrieve", hash)
	blob, _ := ret[0].([]byte)
	err, _ := ret[1].(error)
	return blob, err
}

func (mr *MockFamilyMockRecorder) Retrieve(hash interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Retrieve", reflect.TypeOf((*MockFamily)(nil).Retrieve), hash)
}

func (m *MockFamily) Store(objType ObjectType, seq uint32, blob []byte, hash [32]byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Store", objType, seq, blob, hash)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockFamilyMockRecorder) Store(objType, seq, blob, hash interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Store", reflect.TypeOf((*MockFamily)(nil).Store), objType, seq, blob, hash)
}
