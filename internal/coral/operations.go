package coral

// Operation es un documento GraphQL con sus variables.
type Operation struct {
	// Name se usa solo para logs y métricas.
	Name      string
	Query     string
	Variables map[string]any
}

// Documentos GraphQL consumidos. Son fijos: esto no es un cliente GraphQL genérico.
const (
	CreateTokenMutation = `mutation CreateTokenMutation($name: String!) {
  createToken(input: { clientMutationId: "", name: $name }) {
    token { id name createdAt }
    signedToken
  }
}`

	ApproveCommentMutation = `mutation ApproveComment($commentID: ID!, $commentRevisionID: ID!) {
  approveComment(input: { clientMutationId: "", commentID: $commentID, commentRevisionID: $commentRevisionID }) {
    comment { id status }
  }
}`

	RejectCommentMutation = `mutation RejectComment($commentID: ID!, $commentRevisionID: ID!) {
  rejectComment(input: { clientMutationId: "", commentID: $commentID, commentRevisionID: $commentRevisionID }) {
    comment { id status }
  }
}`

	RecentCommentsQuery = `query RecentComments($first: Int!) {
  comments(first: $first, orderBy: CREATED_AT_DESC) {
    nodes {
      id
      body
      createdAt
      revision { id }
      author { id username }
      story { url metadata { title } }
    }
  }
}`

	ModerationQueuesQuery = `query ModerationQueues($first: Int!) {
  moderationQueues {
    unmoderated {
      count
      comments(first: $first) { nodes { ...QueueComment } }
    }
    reported {
      count
      comments(first: $first) { nodes { ...QueueComment } }
    }
  }
}

fragment QueueComment on Comment {
  id
  body
  status
  createdAt
  revision { id }
  author { id username }
  story { url metadata { title } }
}`
)
