// Package httpapp provides the HTTP surface of the social-media service.
//
// Every endpoint lives under /api. Token issuance and registration are the
// only unauthenticated routes; everything else expects an
// "Authorization: Bearer <token>" header carrying a JWT from
// POST /api/authenticate.
//
//	POST   /api/authenticate   {email, password} -> {token}
//	POST   /api/register       {name, email, password} -> created user
//	POST   /api/follow/{id}    -> updated user
//	POST   /api/unfollow/{id}  -> updated user
//	GET    /api/user           -> {name, followers, following}
//	POST   /api/posts          {title, description} -> created post
//	DELETE /api/posts/{id}     -> {message} (author only)
//	POST   /api/like/{id}      -> updated post
//	POST   /api/unlike/{id}    -> updated post
//	POST   /api/comment/{id}   {text} -> {commentId}
//	GET    /api/posts/{id}     -> summary with like/comment counts
//	GET    /api/posts          -> all posts, comments attached
//	GET    /api/all_posts      -> caller's posts, newest first
//	GET    /api/stats          -> {users, posts, comments}
//	GET    /api/version        -> build info
//
// Domain failures are translated to JSON {error} bodies at this boundary:
// 401 for token and ownership failures, 404 for unresolvable ids, 400 for
// malformed input and failed preconditions, 500 for everything unexpected.
package httpapp
