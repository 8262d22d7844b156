package engine

import "context"

// Pass-through helpers, one per catalog action. They exist so callers
// can grep for the action they trigger instead of threading constants.

// AwardForPostCreation grants XP for publishing a post.
func (e *Engine) AwardForPostCreation(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionPostCreated, meta)
}

// AwardForLikeReceived grants XP to the author of a liked post.
func (e *Engine) AwardForLikeReceived(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionPostLikedReceived, meta)
}

// DeductForPostUnliked reverses a like award.
func (e *Engine) DeductForPostUnliked(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionPostUnliked, meta)
}

// AwardForCommentCreated grants XP for writing a comment.
func (e *Engine) AwardForCommentCreated(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCommentCreated, meta)
}

// AwardForCommentReceived grants XP to the author of a commented post.
func (e *Engine) AwardForCommentReceived(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCommentReceived, meta)
}

// AwardForCommentLikeReceived grants XP to the author of a liked comment.
func (e *Engine) AwardForCommentLikeReceived(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCommentLikedReceived, meta)
}

// DeductForCommentUnlike reverses a comment-like award.
func (e *Engine) DeductForCommentUnlike(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCommentUnliked, meta)
}

// AwardForCollabAccepted grants XP for an accepted collaboration.
func (e *Engine) AwardForCollabAccepted(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCollabAccepted, meta)
}

// AwardForCollabSent grants XP for sending a collaboration request.
func (e *Engine) AwardForCollabSent(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionCollabSent, meta)
}

// DeductForValidReport deducts XP after a report against the user is
// upheld.
func (e *Engine) DeductForValidReport(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionPostReportedValid, meta)
}

// AwardForDailyLogin grants the daily login reward plus streak bonus.
func (e *Engine) AwardForDailyLogin(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionLoginDaily, meta)
}

// AwardForPostShared grants XP for sharing a post.
func (e *Engine) AwardForPostShared(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionPostShared, meta)
}

// AwardForProfileVerified grants the one-time verification reward.
func (e *Engine) AwardForProfileVerified(ctx context.Context, userID uint, meta Metadata) (Result, error) {
	return e.Award(ctx, userID, ActionProfileVerified, meta)
}
