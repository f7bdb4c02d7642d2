package archiving

import (
	"context"
	"fmt"

	"github.com/trezcool/registro/core/academic"
	"github.com/trezcool/registro/core/archive"
	"github.com/trezcool/registro/core/store"
)

// resolver looks up the names a snapshot denormalizes, caching them for the length of one cascade.
type resolver struct {
	tx       store.Tx
	people   map[int64]string
	subjects map[int64]string
	groups   map[int64]academic.Group
}

func newResolver(tx store.Tx) *resolver {
	return &resolver{
		tx:       tx,
		people:   make(map[int64]string),
		subjects: make(map[int64]string),
		groups:   make(map[int64]academic.Group),
	}
}

func (r *resolver) personName(ctx context.Context, userID int64) (string, error) {
	if name, ok := r.people[userID]; ok {
		return name, nil
	}
	usr, err := r.tx.Users.GetUser(ctx, userID)
	if err != nil {
		return "", txError(fmt.Sprintf("resolving person %d", userID), err)
	}
	r.people[userID] = usr.Name
	return usr.Name, nil
}

func (r *resolver) subjectName(ctx context.Context, subjectID int64) (string, error) {
	if name, ok := r.subjects[subjectID]; ok {
		return name, nil
	}
	sub, err := r.tx.Subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return "", txError(fmt.Sprintf("resolving subject %d", subjectID), err)
	}
	r.subjects[subjectID] = sub.Name
	return sub.Name, nil
}

func (r *resolver) group(ctx context.Context, groupID int64) (academic.Group, error) {
	if grp, ok := r.groups[groupID]; ok {
		return grp, nil
	}
	grp, err := r.tx.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return academic.Group{}, txError(fmt.Sprintf("resolving student group %d", groupID), err)
	}
	r.groups[groupID] = grp
	return grp, nil
}

func (r *resolver) studentRefs(ctx context.Context, std academic.Student) (archive.StudentRefs, error) {
	name, err := r.personName(ctx, std.UserID)
	if err != nil {
		return archive.StudentRefs{}, err
	}
	refs := archive.StudentRefs{Student: std, FullName: name}
	if std.GroupID != nil {
		grp, err := r.group(ctx, *std.GroupID)
		if err != nil {
			return archive.StudentRefs{}, err
		}
		refs.Group = &grp
	}
	return refs, nil
}

func (r *resolver) gradeRefs(ctx context.Context, grd academic.Grade, student archive.StudentRefs) (archive.GradeRefs, error) {
	subject, err := r.subjectName(ctx, grd.SubjectID)
	if err != nil {
		return archive.GradeRefs{}, err
	}
	teacher, err := r.personName(ctx, grd.TeacherID)
	if err != nil {
		return archive.GradeRefs{}, err
	}
	return archive.GradeRefs{Student: student, SubjectName: subject, TeacherName: teacher}, nil
}
