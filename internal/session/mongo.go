package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
)

const (
	usersCollection = "identity_users"
	rolesCollection = "identity_roles"

	userCachePrefix = "identity:user:"
)

type emailDoc struct {
	Address   string `bson:"address"`
	Confirmed bool   `bson:"confirmed"`
	Primary   bool   `bson:"primary"`
}

type loginDoc struct {
	Provider    string `bson:"provider"`
	DisplayName string `bson:"display_name,omitempty"`
	Key         string `bson:"key"`
}

type claimDoc struct {
	Type  string `bson:"type"`
	Value string `bson:"value"`
}

type userDoc struct {
	ID                   string     `bson:"_id"`
	PasswordHash         string     `bson:"password_hash,omitempty"`
	PhoneNumber          string     `bson:"phone_number,omitempty"`
	PhoneNumberConfirmed bool       `bson:"phone_number_confirmed"`
	Active               bool       `bson:"is_active"`
	TwoFactorEnabled     bool       `bson:"two_factor_enabled"`
	LockoutEnabled       bool       `bson:"lockout_enabled"`
	LockoutEnd           *time.Time `bson:"lockout_end,omitempty"`
	AccessFailedCount    int        `bson:"access_failed_count"`
	SecurityStamp        string     `bson:"security_stamp,omitempty"`
	Emails               []emailDoc `bson:"emails"`
	Logins               []loginDoc `bson:"logins"`
	Roles                []string   `bson:"roles"`
	Claims               []claimDoc `bson:"claims"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

type roleDoc struct {
	ID        int64      `bson:"_id"`
	Name      string     `bson:"name"`
	Claims    []claimDoc `bson:"claims"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func userDocFromData(d entity.UserData) userDoc {
	doc := userDoc{
		ID:                   d.ID,
		PasswordHash:         d.PasswordHash,
		PhoneNumber:          d.PhoneNumber,
		PhoneNumberConfirmed: d.PhoneNumberConfirmed,
		Active:               d.Active,
		TwoFactorEnabled:     d.TwoFactorEnabled,
		LockoutEnabled:       d.LockoutEnabled,
		LockoutEnd:           d.LockoutEnd,
		AccessFailedCount:    d.AccessFailedCount,
		SecurityStamp:        d.SecurityStamp,
		Roles:                d.Roles,
	}
	for _, e := range d.Emails {
		doc.Emails = append(doc.Emails, emailDoc{Address: e.Address, Confirmed: e.Confirmed, Primary: e.Primary})
	}
	for _, l := range d.Logins {
		doc.Logins = append(doc.Logins, loginDoc{Provider: l.Provider, DisplayName: l.DisplayName, Key: l.Key})
	}
	for _, c := range d.Claims {
		doc.Claims = append(doc.Claims, claimDoc{Type: c.Type, Value: c.Value})
	}
	return doc
}

func (doc userDoc) toData() entity.UserData {
	d := entity.UserData{
		ID:                   doc.ID,
		PasswordHash:         doc.PasswordHash,
		PhoneNumber:          doc.PhoneNumber,
		PhoneNumberConfirmed: doc.PhoneNumberConfirmed,
		Active:               doc.Active,
		TwoFactorEnabled:     doc.TwoFactorEnabled,
		LockoutEnabled:       doc.LockoutEnabled,
		LockoutEnd:           doc.LockoutEnd,
		AccessFailedCount:    doc.AccessFailedCount,
		SecurityStamp:        doc.SecurityStamp,
		Roles:                doc.Roles,
	}
	for _, e := range doc.Emails {
		d.Emails = append(d.Emails, entity.Email{Address: e.Address, Confirmed: e.Confirmed, Primary: e.Primary})
	}
	for _, l := range doc.Logins {
		d.Logins = append(d.Logins, entity.Login{Provider: l.Provider, DisplayName: l.DisplayName, Key: l.Key})
	}
	for _, c := range doc.Claims {
		d.Claims = append(d.Claims, entity.Claim{Type: c.Type, Value: c.Value})
	}
	return d
}

func roleDocFromData(d entity.RoleData) roleDoc {
	doc := roleDoc{ID: d.ID, Name: d.Name}
	for _, c := range d.Claims {
		doc.Claims = append(doc.Claims, claimDoc{Type: c.Type, Value: c.Value})
	}
	return doc
}

func (doc roleDoc) toData() entity.RoleData {
	d := entity.RoleData{ID: doc.ID, Name: doc.Name}
	for _, c := range doc.Claims {
		d.Claims = append(d.Claims, entity.Claim{Type: c.Type, Value: c.Value})
	}
	return d
}

type trackedUser struct {
	user   *entity.User
	origin entity.UserData
}

type trackedRole struct {
	role   *entity.Role
	origin entity.RoleData
}

// MongoSession is the MongoDB-backed document session, with an optional
// Redis read-through cache for user documents. It is not safe for
// concurrent use; one session serves one logical operation sequence.
type MongoSession struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger

	trackedUsers map[string]*trackedUser
	trackedRoles map[int64]*trackedRole
	storedUsers  map[string]*entity.User
	storedRoles  map[int64]*entity.Role
	deletedUsers map[string]struct{}
	deletedRoles map[int64]struct{}
}

// NewMongoSession builds a session over db and ensures the indexes the
// query filters rely on. Index creation failures are logged and tolerated;
// the indexes may already exist. cache may be nil to disable caching.
func NewMongoSession(db *mongo.Database, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *MongoSession {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := db.Collection(usersCollection)
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "emails.address", Value: 1}, {Key: "emails.primary", Value: 1}}},
		{Keys: bson.D{{Key: "logins.provider", Value: 1}, {Key: "logins.key", Value: 1}}},
		{Keys: bson.D{{Key: "roles", Value: 1}}},
		{Keys: bson.D{{Key: "claims.type", Value: 1}}},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	}

	roles := db.Collection(rolesCollection)
	roleIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := roles.Indexes().CreateMany(ctx, roleIndexes); err != nil {
		logger.Warn("Failed to create indexes for roles collection (may already exist)", zap.Error(err))
	}

	return &MongoSession{
		users:        users,
		roles:        roles,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger.Named("MongoSession"),
		trackedUsers: make(map[string]*trackedUser),
		trackedRoles: make(map[int64]*trackedRole),
		storedUsers:  make(map[string]*entity.User),
		storedRoles:  make(map[int64]*entity.Role),
		deletedUsers: make(map[string]struct{}),
		deletedRoles: make(map[int64]struct{}),
	}
}

// LoadUser returns the user with the given key, or nil if absent. Loads are
// served from the session's identity map first, then the Redis cache, then
// the collection.
func (s *MongoSession) LoadUser(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, apperrors.InvalidArgumentf("user id is empty")
	}
	if _, gone := s.deletedUsers[id]; gone {
		return nil, nil
	}
	if t, ok := s.trackedUsers[id]; ok {
		return t.user, nil
	}
	if u, ok := s.storedUsers[id]; ok {
		return u, nil
	}

	if doc, ok := s.cachedUser(ctx, id); ok {
		return s.trackUser(doc), nil
	}

	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Debug("User not found", zap.String("userID", id))
			return nil, nil
		}
		s.logger.Error("Database error loading user", zap.String("userID", id), zap.Error(err))
		return nil, err
	}
	s.cacheUser(ctx, doc)
	return s.trackUser(doc), nil
}

// LoadRole returns the role with the given key, or nil if absent.
func (s *MongoSession) LoadRole(ctx context.Context, id int64) (*entity.Role, error) {
	if _, gone := s.deletedRoles[id]; gone {
		return nil, nil
	}
	if t, ok := s.trackedRoles[id]; ok {
		return t.role, nil
	}
	if r, ok := s.storedRoles[id]; ok {
		return r, nil
	}

	var doc roleDoc
	err := s.roles.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Debug("Role not found", zap.Int64("roleID", id))
			return nil, nil
		}
		s.logger.Error("Database error loading role", zap.Int64("roleID", id), zap.Error(err))
		return nil, err
	}
	return s.trackRole(doc), nil
}

// QueryUsers returns the users matching f. A nil filter matches all.
func (s *MongoSession) QueryUsers(ctx context.Context, f query.UserFilter) ([]*entity.User, error) {
	filter, err := compileUserFilter(f)
	if err != nil {
		return nil, err
	}

	cursor, err := s.users.Find(ctx, filter)
	if err != nil {
		s.logger.Error("Database error querying users", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		s.logger.Error("Error decoding queried users", zap.Error(err))
		return nil, err
	}

	out := make([]*entity.User, 0, len(docs))
	for _, doc := range docs {
		if _, gone := s.deletedUsers[doc.ID]; gone {
			continue
		}
		out = append(out, s.trackUser(doc))
	}
	return out, nil
}

// QueryRoles returns the roles matching f. A nil filter matches all.
func (s *MongoSession) QueryRoles(ctx context.Context, f query.RoleFilter) ([]*entity.Role, error) {
	filter, err := compileRoleFilter(f)
	if err != nil {
		return nil, err
	}

	cursor, err := s.roles.Find(ctx, filter)
	if err != nil {
		s.logger.Error("Database error querying roles", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		s.logger.Error("Error decoding queried roles", zap.Error(err))
		return nil, err
	}

	out := make([]*entity.Role, 0, len(docs))
	for _, doc := range docs {
		if _, gone := s.deletedRoles[doc.ID]; gone {
			continue
		}
		out = append(out, s.trackRole(doc))
	}
	return out, nil
}

// StoreUser stages u to be written at the next SaveChanges.
func (s *MongoSession) StoreUser(_ context.Context, u *entity.User) error {
	if u == nil {
		return apperrors.ArgumentNull("user")
	}
	delete(s.deletedUsers, u.ID())
	s.storedUsers[u.ID()] = u
	return nil
}

// StoreRole stages r to be written at the next SaveChanges.
func (s *MongoSession) StoreRole(_ context.Context, r *entity.Role) error {
	if r == nil {
		return apperrors.ArgumentNull("role")
	}
	delete(s.deletedRoles, r.ID())
	s.storedRoles[r.ID()] = r
	return nil
}

// DeleteUser stages removal of u at the next SaveChanges.
func (s *MongoSession) DeleteUser(_ context.Context, u *entity.User) error {
	if u == nil {
		return apperrors.ArgumentNull("user")
	}
	delete(s.storedUsers, u.ID())
	delete(s.trackedUsers, u.ID())
	s.deletedUsers[u.ID()] = struct{}{}
	return nil
}

// DeleteRole stages removal of r at the next SaveChanges.
func (s *MongoSession) DeleteRole(_ context.Context, r *entity.Role) error {
	if r == nil {
		return apperrors.ArgumentNull("role")
	}
	delete(s.storedRoles, r.ID())
	delete(s.trackedRoles, r.ID())
	s.deletedRoles[r.ID()] = struct{}{}
	return nil
}

// SaveChanges flushes every staged write, every tracked aggregate whose
// state changed since it was loaded, and every staged delete in one bulk
// write per collection. Cache entries for flushed users are invalidated
// only after the flush succeeds, so the cache never runs ahead of the
// durable store.
func (s *MongoSession) SaveChanges(ctx context.Context) error {
	now := time.Now()

	var userWrites []mongo.WriteModel
	var touchedUserIDs []string
	for id, u := range s.storedUsers {
		doc := userDocFromData(u.Snapshot())
		doc.UpdatedAt = now
		userWrites = append(userWrites, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true))
		touchedUserIDs = append(touchedUserIDs, id)
	}
	for id, t := range s.trackedUsers {
		if _, staged := s.storedUsers[id]; staged {
			continue
		}
		snap := t.user.Snapshot()
		if userDataEqual(snap, t.origin) {
			continue
		}
		doc := userDocFromData(snap)
		doc.UpdatedAt = now
		userWrites = append(userWrites, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true))
		touchedUserIDs = append(touchedUserIDs, id)
	}
	for id := range s.deletedUsers {
		userWrites = append(userWrites, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
		touchedUserIDs = append(touchedUserIDs, id)
	}

	var roleWrites []mongo.WriteModel
	for id, r := range s.storedRoles {
		doc := roleDocFromData(r.Snapshot())
		doc.UpdatedAt = now
		roleWrites = append(roleWrites, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true))
	}
	for id, t := range s.trackedRoles {
		if _, staged := s.storedRoles[id]; staged {
			continue
		}
		snap := t.role.Snapshot()
		if roleDataEqual(snap, t.origin) {
			continue
		}
		doc := roleDocFromData(snap)
		doc.UpdatedAt = now
		roleWrites = append(roleWrites, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true))
	}
	for id := range s.deletedRoles {
		roleWrites = append(roleWrites, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
	}

	if len(userWrites) > 0 {
		if _, err := s.users.BulkWrite(ctx, userWrites); err != nil {
			s.logger.Error("Database error flushing user changes", zap.Error(err))
			return err
		}
	}
	if len(roleWrites) > 0 {
		if _, err := s.roles.BulkWrite(ctx, roleWrites); err != nil {
			s.logger.Error("Database error flushing role changes", zap.Error(err))
			return err
		}
	}

	s.invalidateUsers(ctx, touchedUserIDs)
	s.settle()
	s.logger.Debug("Session changes flushed",
		zap.Int("userWrites", len(userWrites)),
		zap.Int("roleWrites", len(roleWrites)))
	return nil
}

// settle moves staged writes into the tracked set and clears deletions,
// so a session can keep working after a flush.
func (s *MongoSession) settle() {
	for id, u := range s.storedUsers {
		s.trackedUsers[id] = &trackedUser{user: u, origin: u.Snapshot()}
	}
	for id, t := range s.trackedUsers {
		t.origin = t.user.Snapshot()
		s.trackedUsers[id] = t
	}
	for id, r := range s.storedRoles {
		s.trackedRoles[id] = &trackedRole{role: r, origin: r.Snapshot()}
	}
	for id, t := range s.trackedRoles {
		t.origin = t.role.Snapshot()
		s.trackedRoles[id] = t
	}
	s.storedUsers = make(map[string]*entity.User)
	s.storedRoles = make(map[int64]*entity.Role)
	s.deletedUsers = make(map[string]struct{})
	s.deletedRoles = make(map[int64]struct{})
}

func (s *MongoSession) trackUser(doc userDoc) *entity.User {
	if t, ok := s.trackedUsers[doc.ID]; ok {
		return t.user
	}
	data := doc.toData()
	u := entity.RehydrateUser(data)
	s.trackedUsers[doc.ID] = &trackedUser{user: u, origin: u.Snapshot()}
	return u
}

func (s *MongoSession) trackRole(doc roleDoc) *entity.Role {
	if t, ok := s.trackedRoles[doc.ID]; ok {
		return t.role
	}
	r := entity.RehydrateRole(doc.toData())
	s.trackedRoles[doc.ID] = &trackedRole{role: r, origin: r.Snapshot()}
	return r
}

// cachedUser reads a user document from Redis. The cache is advisory:
// any Redis failure is treated as a miss.
func (s *MongoSession) cachedUser(ctx context.Context, id string) (userDoc, bool) {
	if s.cache == nil {
		return userDoc{}, false
	}
	raw, err := s.cache.Get(ctx, userCachePrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("Cache read failed, falling through to store", zap.String("userID", id), zap.Error(err))
		}
		return userDoc{}, false
	}
	var doc userDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("Corrupt cache entry, falling through to store", zap.String("userID", id), zap.Error(err))
		return userDoc{}, false
	}
	return doc, true
}

func (s *MongoSession) cacheUser(ctx context.Context, doc userDoc) {
	if s.cache == nil {
		return
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, userCachePrefix+doc.ID, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("Cache write failed", zap.String("userID", doc.ID), zap.Error(err))
	}
}

func (s *MongoSession) invalidateUsers(ctx context.Context, ids []string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userCachePrefix + id
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Strings("userIDs", ids), zap.Error(err))
	}
}

// compileUserFilter translates a query filter into a bson document. The
// primary-email filter uses $elemMatch so both conditions bind to the same
// array entry; "claims.type" alone is enough for the claim filter.
func compileUserFilter(f query.UserFilter) (bson.M, error) {
	switch v := f.(type) {
	case nil:
		return bson.M{}, nil
	case query.PrimaryEmailFilter:
		return bson.M{"emails": bson.M{"$elemMatch": bson.M{"address": v.Address, "primary": true}}}, nil
	case query.ClaimTypeFilter:
		return bson.M{"claims.type": v.ClaimType}, nil
	case query.LoginFilter:
		return bson.M{"logins": bson.M{"$elemMatch": bson.M{"provider": v.Provider, "key": v.Key}}}, nil
	case query.RoleMemberFilter:
		return bson.M{"roles": v.Role}, nil
	default:
		return nil, apperrors.InvalidArgumentf("unsupported user filter %T", f)
	}
}

func compileRoleFilter(f query.RoleFilter) (bson.M, error) {
	switch v := f.(type) {
	case nil:
		return bson.M{}, nil
	case query.RoleNameFilter:
		return bson.M{"name": v.Name}, nil
	default:
		return nil, apperrors.InvalidArgumentf("unsupported role filter %T", f)
	}
}

func userDataEqual(a, b entity.UserData) bool {
	if a.ID != b.ID || a.PasswordHash != b.PasswordHash || a.PhoneNumber != b.PhoneNumber ||
		a.PhoneNumberConfirmed != b.PhoneNumberConfirmed || a.Active != b.Active ||
		a.TwoFactorEnabled != b.TwoFactorEnabled || a.LockoutEnabled != b.LockoutEnabled ||
		a.AccessFailedCount != b.AccessFailedCount || a.SecurityStamp != b.SecurityStamp {
		return false
	}
	if (a.LockoutEnd == nil) != (b.LockoutEnd == nil) {
		return false
	}
	if a.LockoutEnd != nil && !a.LockoutEnd.Equal(*b.LockoutEnd) {
		return false
	}
	if len(a.Emails) != len(b.Emails) || len(a.Logins) != len(b.Logins) ||
		len(a.Roles) != len(b.Roles) || len(a.Claims) != len(b.Claims) {
		return false
	}
	for i := range a.Emails {
		if a.Emails[i] != b.Emails[i] {
			return false
		}
	}
	for i := range a.Logins {
		if a.Logins[i] != b.Logins[i] {
			return false
		}
	}
	for i := range a.Roles {
		if a.Roles[i] != b.Roles[i] {
			return false
		}
	}
	for i := range a.Claims {
		if a.Claims[i] != b.Claims[i] {
			return false
		}
	}
	return true
}

func roleDataEqual(a, b entity.RoleData) bool {
	if a.ID != b.ID || a.Name != b.Name || len(a.Claims) != len(b.Claims) {
		return false
	}
	for i := range a.Claims {
		if a.Claims[i] != b.Claims[i] {
			return false
		}
	}
	return true
}
