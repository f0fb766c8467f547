// Package memory implements remote.Store in process memory.
// It follows the change-token semantics of the HTTP store closely enough to drive
// the engine in tests: global sequence numbers, paged change feeds, per-record
// optimistic concurrency, and fault injection per operation.
package memory

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// Op identifies a remote.Store method for fault injection and call counting.
type Op string

const (
	OpAccountStatus      Op = "account_status"
	OpFetchDatabase      Op = "fetch_database"
	OpFetchZone          Op = "fetch_zone"
	OpModify             Op = "modify"
	OpCreateZone         Op = "create_zone"
	OpZoneExists         Op = "zone_exists"
	OpCreateSubscription Op = "create_subscription"
	OpSubscriptionExists Op = "subscription_exists"
)

const tokenLen = 12

type fault struct {
	err   error
	apply bool // операция выполняется, но ответ "теряется"
}

type zoneEvent struct {
	id  models.RecordID
	seq uint64
}

type dbEvent struct {
	zone    models.ZoneID
	seq     uint64
	deleted bool
}

type zone struct {
	records map[models.RecordID]models.Record
	events  []zoneEvent
}

// Store is an in-memory remote.Store.
type Store struct {
	zones        map[models.ZoneID]*zone
	deletedZones map[models.ZoneID]remote.ErrorCode
	subs         map[string]remote.Subscription
	faults       map[Op][]fault
	calls        map[Op]int
	hooks        map[Op]func()
	rejects      map[models.RecordID]error
	fetchErrors  map[models.RecordID]error
	accountErr   error
	account      remote.AccountStatus
	dbEvents     []dbEvent
	modifySizes  []int
	seq          uint64
	pageSize     int
	batchLimit   int
	mu           sync.Mutex
	epoch        uint32
}

var _ remote.Store = (*Store)(nil)

// New creates an empty store with an available account.
func New() *Store {
	return &Store{
		zones:        make(map[models.ZoneID]*zone),
		deletedZones: make(map[models.ZoneID]remote.ErrorCode),
		subs:         make(map[string]remote.Subscription),
		faults:       make(map[Op][]fault),
		calls:        make(map[Op]int),
		hooks:        make(map[Op]func()),
		rejects:      make(map[models.RecordID]error),
		fetchErrors:  make(map[models.RecordID]error),
		account:      remote.AccountAvailable,
	}
}

// SetPageSize limits the number of change events per fetch page. Zero means unlimited.
func (s *Store) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// SetBatchLimit makes ModifyRecords fail with LIMIT_EXCEEDED for batches larger than n.
// Zero means unlimited.
func (s *Store) SetBatchLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchLimit = n
}

// SetAccountStatus sets the result of AccountStatus.
func (s *Store) SetAccountStatus(status remote.AccountStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = status
	s.accountErr = err
}

// FailNext queues errors returned by the next calls of op, one per call.
func (s *Store) FailNext(op Op, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, err := range errs {
		s.faults[op] = append(s.faults[op], fault{err: err})
	}
}

// FailAfterApply makes the next call of op perform its effect and then return err.
// Models a lost response.
func (s *Store) FailAfterApply(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], fault{err: err, apply: true})
}

// RejectRecord makes the next save of id fail with err in ModifyResult.RecordErrors.
func (s *Store) RejectRecord(id models.RecordID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[id] = err
}

// FailRecordFetch reports err for id instead of the record on the next zone fetch that includes it.
func (s *Store) FailRecordFetch(id models.RecordID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErrors[id] = err
}

// OnCall registers fn to run at the start of every call of op, outside the store lock.
func (s *Store) OnCall(op Op, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[op] = fn
}

// ExpireTokens invalidates every change token issued so far.
func (s *Store) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ModifySizes returns the size of every ModifyRecords request in call order.
func (s *Store) ModifySizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.modifySizes)
}

// begin считает вызов, запускает хук и извлекает очередную внедрённую ошибку
func (s *Store) begin(ctx context.Context, op Op) (fault, bool, error) {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hooks[op]
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return fault{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.faults[op]
	if len(queue) == 0 {
		return fault{}, false, nil
	}
	f := queue[0]
	s.faults[op] = queue[1:]
	return f, true, nil
}

func (s *Store) token(seq uint64) models.ChangeToken {
	buf := make([]byte, tokenLen)
	binary.BigEndian.PutUint32(buf[:4], s.epoch)
	binary.BigEndian.PutUint64(buf[4:], seq)
	return buf
}

func (s *Store) decodeToken(tok models.ChangeToken) (uint64, error) {
	if tok.IsZero() {
		return 0, nil
	}
	if len(tok) != tokenLen {
		return 0, remote.NewError(remote.CodeBadRequest, "malformed change token")
	}
	if binary.BigEndian.Uint32(tok[:4]) != s.epoch {
		return 0, remote.NewError(remote.CodeChangeTokenExpired, "change token expired")
	}
	return binary.BigEndian.Uint64(tok[4:]), nil
}

func (s *Store) zoneLocked(id models.ZoneID) (*zone, error) {
	z, ok := s.zones[id]
	if ok {
		return z, nil
	}
	code, deleted := s.deletedZones[id]
	if !deleted {
		code = remote.CodeZoneNotFound
	}
	return nil, remote.NewError(code, fmt.Sprintf("zone %s not found", id))
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// AccountStatus implements remote.Store.
func (s *Store) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	f, ok, err := s.begin(ctx, OpAccountStatus)
	if err != nil {
		return remote.AccountCouldNotDetermine, err
	}
	if ok {
		return remote.AccountCouldNotDetermine, f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.accountErr
}

// FetchDatabaseChanges implements remote.Store.
func (s *Store) FetchDatabaseChanges(ctx context.Context, since models.ChangeToken) (*remote.DatabaseChanges, error) {
	f, ok, err := s.begin(ctx, OpFetchDatabase)
	if err != nil {
		return nil, err
	}
	if ok && !f.apply {
		return nil, f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.decodeToken(since)
	if err != nil {
		return nil, err
	}

	var pending []dbEvent
	for _, ev := range s.dbEvents {
		if ev.seq > from {
			pending = append(pending, ev)
		}
	}

	page, more := pending, false
	if s.pageSize > 0 && len(page) > s.pageSize {
		page, more = page[:s.pageSize], true
	}

	last := from
	state := make(map[models.ZoneID]bool)
	var order []models.ZoneID
	for _, ev := range page {
		if _, seen := state[ev.zone]; !seen {
			order = append(order, ev.zone)
		}
		state[ev.zone] = ev.deleted
		last = ev.seq
	}
	if len(pending) == 0 {
		last = max(from, s.seq)
	}

	res := &remote.DatabaseChanges{Token: s.token(last), MoreComing: more}
	for _, id := range order {
		if state[id] {
			res.Deleted = append(res.Deleted, id)
		} else {
			res.Changed = append(res.Changed, id)
		}
	}

	if ok {
		return nil, f.err
	}
	return res, nil
}

// FetchZoneChanges implements remote.Store.
func (s *Store) FetchZoneChanges(ctx context.Context, zoneID models.ZoneID, since models.ChangeToken) (*remote.ZoneChanges, error) {
	f, ok, err := s.begin(ctx, OpFetchZone)
	if err != nil {
		return nil, err
	}
	if ok && !f.apply {
		return nil, f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zoneLocked(zoneID)
	if err != nil {
		return nil, err
	}
	from, err := s.decodeToken(since)
	if err != nil {
		return nil, err
	}

	var pending []zoneEvent
	for _, ev := range z.events {
		if ev.seq > from {
			pending = append(pending, ev)
		}
	}

	page, more := pending, false
	if s.pageSize > 0 && len(page) > s.pageSize {
		page, more = page[:s.pageSize], true
	}

	last := from
	seen := make(map[models.RecordID]bool)
	res := &remote.ZoneChanges{MoreComing: more}
	for _, ev := range page {
		last = ev.seq
		if seen[ev.id] {
			continue
		}
		seen[ev.id] = true

		if ferr, bad := s.fetchErrors[ev.id]; bad {
			delete(s.fetchErrors, ev.id)
			if res.RecordErrors == nil {
				res.RecordErrors = make(map[models.RecordID]error)
			}
			res.RecordErrors[ev.id] = ferr
			continue
		}
		if rec, exists := z.records[ev.id]; exists {
			res.Changed = append(res.Changed, rec.Clone())
		} else {
			res.Deleted = append(res.Deleted, ev.id)
		}
	}
	if len(pending) == 0 {
		last = max(from, s.seq)
	}
	res.Token = s.token(last)

	if ok {
		return nil, f.err
	}
	return res, nil
}

// ModifyRecords implements remote.Store.
func (s *Store) ModifyRecords(ctx context.Context, req remote.ModifyRequest) (*remote.ModifyResult, error) {
	f, ok, err := s.begin(ctx, OpModify)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.modifySizes = append(s.modifySizes, req.Size())
	if ok && !f.apply {
		return nil, f.err
	}

	z, err := s.zoneLocked(req.Zone)
	if err != nil {
		return nil, err
	}
	if s.batchLimit > 0 && req.Size() > s.batchLimit {
		return nil, remote.NewError(remote.CodeLimitExceeded,
			fmt.Sprintf("batch of %d exceeds limit %d", req.Size(), s.batchLimit))
	}

	res := &remote.ModifyResult{}
	fail := func(id models.RecordID, err error) {
		if res.RecordErrors == nil {
			res.RecordErrors = make(map[models.RecordID]error)
		}
		res.RecordErrors[id] = err
	}

	for _, rec := range req.Save {
		if rerr, rejected := s.rejects[rec.ID]; rejected {
			delete(s.rejects, rec.ID)
			fail(rec.ID, rerr)
			continue
		}

		cur, exists := z.records[rec.ID]
		if req.Policy != remote.SaveAllKeys && exists && !bytes.Equal(cur.SystemMetadata, rec.SystemMetadata) {
			fail(rec.ID, remote.Conflict(cur))
			continue
		}

		var next models.Record
		if req.Policy == remote.SaveChangedKeys && exists && len(rec.ChangedKeys) > 0 {
			next = cur.Clone()
			next.Type = rec.Type
			if next.Fields == nil {
				next.Fields = make(map[string]json.RawMessage)
			}
			for _, key := range rec.ChangedKeys {
				if v, has := rec.Fields[key]; has {
					next.Fields[key] = slices.Clone(v)
				} else {
					delete(next.Fields, key)
				}
			}
		} else {
			next = rec.Clone()
		}
		next.ChangedKeys = nil
		next.SystemMetadata = []byte(uuid.NewString())

		s.putLocked(req.Zone, z, next)
		res.Saved = append(res.Saved, next.Clone())
	}

	for _, id := range req.Delete {
		if _, exists := z.records[id]; exists {
			delete(z.records, id)
			s.logLocked(req.Zone, z, id)
		}
		res.Deleted = append(res.Deleted, id)
	}

	if ok {
		return nil, f.err
	}
	return res, nil
}

// CreateZone implements remote.Store. Creating an existing zone succeeds.
func (s *Store) CreateZone(ctx context.Context, id models.ZoneID) error {
	f, ok, err := s.begin(ctx, OpCreateZone)
	if err != nil {
		return err
	}
	if ok && !f.apply {
		return f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.zones[id]; !exists {
		s.zones[id] = &zone{records: make(map[models.RecordID]models.Record)}
		delete(s.deletedZones, id)
		s.dbEvents = append(s.dbEvents, dbEvent{zone: id, seq: s.nextSeq()})
	}
	if ok {
		return f.err
	}
	return nil
}

// ZoneExists implements remote.Store.
func (s *Store) ZoneExists(ctx context.Context, id models.ZoneID) (bool, error) {
	f, ok, err := s.begin(ctx, OpZoneExists)
	if err != nil {
		return false, err
	}
	if ok {
		return false, f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.zones[id]
	return exists, nil
}

// CreateSubscription implements remote.Store. A duplicate ID fails with ALREADY_EXISTS.
func (s *Store) CreateSubscription(ctx context.Context, sub remote.Subscription) error {
	f, ok, err := s.begin(ctx, OpCreateSubscription)
	if err != nil {
		return err
	}
	if ok && !f.apply {
		return f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.zoneLocked(sub.Zone); err != nil {
		return err
	}
	if _, exists := s.subs[sub.ID]; exists {
		return remote.NewError(remote.CodeAlreadyExists, fmt.Sprintf("subscription %s already exists", sub.ID))
	}
	s.subs[sub.ID] = sub
	if ok {
		return f.err
	}
	return nil
}

// SubscriptionExists implements remote.Store.
func (s *Store) SubscriptionExists(ctx context.Context, id string) (bool, error) {
	f, ok, err := s.begin(ctx, OpSubscriptionExists)
	if err != nil {
		return false, err
	}
	if ok {
		return false, f.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.subs[id]
	return exists, nil
}

func (s *Store) logLocked(zoneID models.ZoneID, z *zone, id models.RecordID) {
	seq := s.nextSeq()
	z.events = append(z.events, zoneEvent{id: id, seq: seq})
	s.dbEvents = append(s.dbEvents, dbEvent{zone: zoneID, seq: seq})
}

func (s *Store) putLocked(zoneID models.ZoneID, z *zone, rec models.Record) {
	z.records[rec.ID] = rec
	s.logLocked(zoneID, z, rec.ID)
}
