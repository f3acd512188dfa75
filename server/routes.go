package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteAuth, ChainMiddleware(s.CheckSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuth, ChainMiddleware(s.AuthActionHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
}
