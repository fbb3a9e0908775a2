package kvdb

import (
	"context"
	"strings"

	"github.com/shepherd-app/shepherd/core/member"
)

type memberRepository struct {
	db *DB
}

func NewMemberRepository(db *DB) member.Repository {
	return &memberRepository{db: db}
}

func (repo *memberRepository) checkEmail(ctx context.Context, email string, excludedMembers ...member.Member) error {
	excluded := make(map[string]bool, len(excludedMembers))
	for _, m := range excludedMembers {
		excluded[m.ID] = true
	}
	found, err := repo.db.members.find(ctx, func(m member.Member) bool {
		return strings.EqualFold(m.Email, email) && !excluded[m.ID]
	})
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return member.ErrEmailExists
	}
	return nil
}

func (repo *memberRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedMembers ...member.Member) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.checkEmail(ctx, email, excludedMembers...)
}

func (repo *memberRepository) CreateMember(ctx context.Context, mbr member.Member) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkEmail(ctx, mbr.Email); err != nil {
		return member.Member{}, err
	}
	return repo.db.members.create(ctx, mbr)
}

func (repo *memberRepository) GetMember(ctx context.Context, id string) (member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.members.get(ctx, id, member.ErrNotFound)
}

func (repo *memberRepository) GetMemberByEmail(ctx context.Context, email string) (member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.members.first(ctx, func(m member.Member) bool {
		return strings.EqualFold(m.Email, email)
	}, member.ErrNotFound)
}

func (repo *memberRepository) FindMembers(ctx context.Context, filter member.Filter) ([]member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.members.find(ctx, filter.Match)
}

func (repo *memberRepository) UpdateMember(ctx context.Context, mbr member.Member) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkEmail(ctx, mbr.Email, mbr); err != nil {
		return member.Member{}, err
	}
	return repo.db.members.update(ctx, mbr, member.ErrNotFound)
}
