package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"Vega_PT/internal/config"
	"Vega_PT/internal/data"
	"Vega_PT/internal/model"
	"Vega_PT/internal/repository"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func duplicateEntryErr() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

// ---- comment repo ----

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[uint64]*model.Comment
	users    map[uint64]model.User
	nextID   uint64
	clock    time.Time
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		comments: make(map[uint64]*model.Comment),
		users:    make(map[uint64]model.User),
		nextID:   1,
		clock:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeCommentRepo) addUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *fakeCommentRepo) preload(c *model.Comment) {
	c.User = r.users[c.UserID]
	if c.ReplyToUserID != nil {
		c.ReplyToUser = r.users[*c.ReplyToUserID]
	}
}

func (r *fakeCommentRepo) Create(comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	if comment.CreatedAt.IsZero() {
		// 每次创建推进一分钟，排序结果可预测
		r.clock = r.clock.Add(time.Minute)
		comment.CreatedAt = r.clock
	}
	stored := *comment
	r.comments[comment.ID] = &stored
	return nil
}

func (r *fakeCommentRepo) FindByID(commentID uint64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.comments[commentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *stored
	r.preload(&c)
	return &c, nil
}

func (r *fakeCommentRepo) GetRootsByTorrentID(torrentID uint64, offset, limit int, order string) ([]model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roots []model.Comment
	for _, stored := range r.comments {
		if stored.TorrentID == torrentID && stored.ParentID == nil {
			c := *stored
			r.preload(&c)
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].ID < roots[j].ID
		}
		return roots[i].CreatedAt.Before(roots[j].CreatedAt)
	})
	if order != "asc" {
		for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
			roots[i], roots[j] = roots[j], roots[i]
		}
	}
	if offset >= len(roots) {
		return nil, nil
	}
	end := offset + limit
	if end > len(roots) {
		end = len(roots)
	}
	return roots[offset:end], nil
}

func (r *fakeCommentRepo) CountRootsByTorrentID(torrentID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, stored := range r.comments {
		if stored.TorrentID == torrentID && stored.ParentID == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) GetRepliesByRootIDs(rootIDs []uint64) ([]model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uint64]bool, len(rootIDs))
	for _, id := range rootIDs {
		wanted[id] = true
	}
	var replies []model.Comment
	for _, stored := range r.comments {
		if stored.RootID != nil && wanted[*stored.RootID] {
			c := *stored
			r.preload(&c)
			replies = append(replies, c)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		if replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].ID < replies[j].ID
		}
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	return replies, nil
}

func (r *fakeCommentRepo) WithTx(tx *gorm.DB) repository.CommentRepository { return r }

// ---- torrent repo ----

type fakeTorrentRepo struct {
	mu       sync.Mutex
	torrents map[uint64]*model.Torrent
	nextID   uint64
}

func newFakeTorrentRepo() *fakeTorrentRepo {
	return &fakeTorrentRepo{torrents: make(map[uint64]*model.Torrent), nextID: 1}
}

func (r *fakeTorrentRepo) seed(torrent *model.Torrent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if torrent.ID == 0 {
		torrent.ID = r.nextID
	}
	if torrent.ID >= r.nextID {
		r.nextID = torrent.ID + 1
	}
	r.torrents[torrent.ID] = torrent
}

func (r *fakeTorrentRepo) Create(torrent *model.Torrent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.torrents {
		if existing.InfoHash == torrent.InfoHash {
			return duplicateEntryErr()
		}
	}
	torrent.ID = r.nextID
	r.nextID++
	if torrent.CreatedAt.IsZero() {
		torrent.CreatedAt = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(torrent.ID) * time.Hour)
	}
	r.torrents[torrent.ID] = torrent
	return nil
}

func (r *fakeTorrentRepo) FindLatest(limit int) ([]model.Torrent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Torrent
	for _, t := range r.torrents {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeTorrentRepo) FindByID(torrentID uint64) (*model.Torrent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.torrents[torrentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t := *stored
	return &t, nil
}

func (r *fakeTorrentRepo) FindByIDForUpdate(torrentID uint64) (*model.Torrent, error) {
	return r.FindByID(torrentID)
}

func (r *fakeTorrentRepo) IncrementCommentCount(torrentID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.torrents[torrentID]; ok {
		stored.CommentCount++
	}
	return nil
}

func (r *fakeTorrentRepo) GetTorrentCache(torrentID uint64) (*model.Torrent, error) { return nil, nil }
func (r *fakeTorrentRepo) SetTorrentCache(torrent *model.Torrent) error             { return nil }
func (r *fakeTorrentRepo) WithTx(tx *gorm.DB) repository.TorrentRepository          { return r }

// ---- vote repo ----

type fakeVoteRepo struct {
	mu     sync.Mutex
	votes  map[uint64]*model.Vote
	byKey  map[[2]uint64]uint64 // (commentID, voterID) -> voteID
	nextID uint64

	cache    map[uint64]repository.VoteCounts
	cacheErr error

	// 置true后，下一次Create先替"并发赢家"插入同样的票再报1062
	raceOnce bool

	countsCalls int
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{
		votes:  make(map[uint64]*model.Vote),
		byKey:  make(map[[2]uint64]uint64),
		cache:  make(map[uint64]repository.VoteCounts),
		nextID: 1,
	}
}

func (r *fakeVoteRepo) Create(vote *model.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uint64{vote.CommentID, vote.UserID}
	if r.raceOnce {
		r.raceOnce = false
		winner := &model.Vote{
			BaseModel: model.BaseModel{ID: r.nextID},
			CommentID: vote.CommentID,
			UserID:    vote.UserID,
			Value:     vote.Value,
		}
		r.nextID++
		r.votes[winner.ID] = winner
		r.byKey[key] = winner.ID
		return duplicateEntryErr()
	}
	if _, exists := r.byKey[key]; exists {
		return duplicateEntryErr()
	}
	vote.ID = r.nextID
	r.nextID++
	stored := *vote
	r.votes[vote.ID] = &stored
	r.byKey[key] = vote.ID
	return nil
}

func (r *fakeVoteRepo) FindByCommentAndVoter(commentID, voterID uint64) (*model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[[2]uint64{commentID, voterID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	v := *r.votes[id]
	return &v, nil
}

func (r *fakeVoteRepo) FindByCommentAndVoterForUpdate(commentID, voterID uint64) (*model.Vote, error) {
	return r.FindByCommentAndVoter(commentID, voterID)
}

func (r *fakeVoteRepo) UpdateValue(voteID uint64, value int8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.votes[voteID]; ok {
		stored.Value = value
	}
	return nil
}

func (r *fakeVoteRepo) DeleteByID(voteID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.votes[voteID]; ok {
		delete(r.byKey, [2]uint64{stored.CommentID, stored.UserID})
		delete(r.votes, voteID)
	}
	return nil
}

func (r *fakeVoteRepo) ListByVoterForComments(voterID uint64, commentIDs []uint64) ([]model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uint64]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}
	var votes []model.Vote
	for _, v := range r.votes {
		if v.UserID == voterID && wanted[v.CommentID] {
			votes = append(votes, *v)
		}
	}
	return votes, nil
}

func (r *fakeVoteRepo) CountsByCommentIDs(commentIDs []uint64) (map[uint64]repository.VoteCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countsCalls++
	wanted := make(map[uint64]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}
	result := make(map[uint64]repository.VoteCounts)
	for _, v := range r.votes {
		if !wanted[v.CommentID] {
			continue
		}
		counts := result[v.CommentID]
		if v.Value > 0 {
			counts.Upvotes++
		} else {
			counts.Downvotes++
		}
		result[v.CommentID] = counts
	}
	return result, nil
}

func (r *fakeVoteRepo) GetCachedCounts(commentIDs []uint64) (map[uint64]repository.VoteCounts, []uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cacheErr != nil {
		return nil, nil, r.cacheErr
	}
	hit := make(map[uint64]repository.VoteCounts)
	var missing []uint64
	for _, id := range commentIDs {
		if counts, ok := r.cache[id]; ok {
			hit[id] = counts
		} else {
			missing = append(missing, id)
		}
	}
	return hit, missing, nil
}

func (r *fakeVoteRepo) SetCachedCounts(counts map[uint64]repository.VoteCounts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cacheErr != nil {
		return r.cacheErr
	}
	for id, c := range counts {
		r.cache[id] = c
	}
	return nil
}

func (r *fakeVoteRepo) WithTx(tx *gorm.DB) repository.VoteRepository { return r }

// ---- user repo ----

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*model.User), nextID: 1}
}

func (r *fakeUserRepo) seed(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := user
	r.users[user.ID] = &stored
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return duplicateEntryErr()
		}
	}
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.users {
		if stored.Username == username {
			u := *stored
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u := *stored
	return &u, nil
}

func (r *fakeUserRepo) IncrementKarma(userID uint64, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.users[userID]; ok {
		stored.Karma += delta
	}
	return nil
}

func (r *fakeUserRepo) WithTx(tx *gorm.DB) repository.UserRepository { return r }

// ---- notification repo ----

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
	nextID        uint64
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(notification *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notifications {
		if existing.EventID == notification.EventID {
			return duplicateEntryErr()
		}
	}
	notification.ID = r.nextID
	r.nextID++
	stored := *notification
	r.notifications = append(r.notifications, &stored)
	return nil
}

func (r *fakeNotificationRepo) ListByUserID(userID uint64, offset, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *fakeNotificationRepo) CountUnread(userID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(notificationID, userID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) WithTx(tx *gorm.DB) repository.NotificationRepository { return r }

// ---- karma log repo ----

type fakeKarmaLogRepo struct {
	mu   sync.Mutex
	logs []*model.KarmaLog
}

func newFakeKarmaLogRepo() *fakeKarmaLogRepo { return &fakeKarmaLogRepo{} }

func (r *fakeKarmaLogRepo) Create(log *model.KarmaLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.logs {
		if existing.EventID == log.EventID && existing.UserID == log.UserID {
			return duplicateEntryErr()
		}
	}
	stored := *log
	r.logs = append(r.logs, &stored)
	return nil
}

func (r *fakeKarmaLogRepo) WithTx(tx *gorm.DB) repository.KarmaLogRepository { return r }

// ---- unit of work / publisher ----

type fakeUnitOfWork struct {
	repos *data.TransactionalRepositories
}

func (u *fakeUnitOfWork) Execute(fn func(repos *data.TransactionalRepositories) error) error {
	return fn(u.repos)
}

type fakeEvent struct {
	queue string
	body  []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []fakeEvent
}

func (p *fakePublisher) Publish(queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, fakeEvent{queue: queue, body: body})
	return nil
}

func (p *fakePublisher) eventsOn(queue string) []fakeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []fakeEvent
	for _, e := range p.events {
		if e.queue == queue {
			result = append(result, e)
		}
	}
	return result
}

// ---- fixture ----

type serviceFixture struct {
	commentRepo      *fakeCommentRepo
	torrentRepo      *fakeTorrentRepo
	voteRepo         *fakeVoteRepo
	userRepo         *fakeUserRepo
	notificationRepo *fakeNotificationRepo
	karmaLogRepo     *fakeKarmaLogRepo
	publisher        *fakePublisher
	cfg              *config.Config

	comments CommentService
	votes    VoteService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		commentRepo:      newFakeCommentRepo(),
		torrentRepo:      newFakeTorrentRepo(),
		voteRepo:         newFakeVoteRepo(),
		userRepo:         newFakeUserRepo(),
		notificationRepo: newFakeNotificationRepo(),
		karmaLogRepo:     newFakeKarmaLogRepo(),
		publisher:        &fakePublisher{},
		cfg: &config.Config{
			CommentPageSize:    10,
			CommentMaxPageSize: 50,
			CommentMaxLength:   2000,
		},
	}
	uow := &fakeUnitOfWork{repos: &data.TransactionalRepositories{
		VoteRepo:         f.voteRepo,
		UserRepo:         f.userRepo,
		NotificationRepo: f.notificationRepo,
		KarmaLogRepo:     f.karmaLogRepo,
		TorrentRepo:      f.torrentRepo,
	}}
	f.votes = NewVoteService(f.voteRepo, f.commentRepo, uow, f.publisher)
	f.comments = NewCommentService(f.commentRepo, f.torrentRepo, f.votes, f.publisher, f.cfg)
	return f
}

func (f *serviceFixture) seedUser(id uint64, username, role string) {
	user := model.User{BaseModel: model.BaseModel{ID: id}, Username: username, Role: role}
	f.userRepo.seed(user)
	f.commentRepo.addUser(user)
}

func (f *serviceFixture) seedTorrent(id, uploaderID uint64) {
	f.torrentRepo.seed(&model.Torrent{
		BaseModel:  model.BaseModel{ID: id, CreatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		UploaderID: uploaderID,
		Title:      fmt.Sprintf("torrent %d", id),
		InfoHash:   fmt.Sprintf("%040d", id),
	})
}
