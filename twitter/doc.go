/*
Package twitter is a small client for the Twitter REST API (v1.1), covering the calls birdcall
needs: fetching and searching posts, listing mutes and social-graph accounts, retweeting, liking,
following, posting and uploading media.

Requests are signed with OAuth 1.0a user credentials. The underlying HTTP client retries
connection errors and 5xx responses, and waits out rate limits using the reset time advertised
by the API, so callers only see errors which are terminal for that call.

Paginated endpoints are exposed as iter.Seq2 sequences which fetch pages lazily:

	for post, err := range client.Search(ctx, platform.SearchParams{Query: "#golang"}) {
		if err != nil {
			return err
		}
		fmt.Println(post.ID, post.Text)
	}
*/
package twitter
